package serialize

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chrisrossi/dumpling/pkg/model"
)

// Dump encodes obj as a tagged YAML document: a mapping node tagged with
// the object's registered schema tag, one key per field that currently has
// a value (set explicitly or via default). A field whose value is itself a
// persistent object (rather than a wrapper container) is recursively
// encoded the same way, as a nested tagged mapping, so no object's state
// ever depends on being attached directly under a folder.
func Dump(obj model.Object) ([]byte, error) {
	mapping, err := dumpNode(obj)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(mapping)
}

func dumpNode(obj model.Object) (*yaml.Node, error) {
	schema, ok := model.SchemaFor(obj)
	if !ok {
		return nil, fmt.Errorf("serialize: no schema registered for %T", obj)
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!" + schema.Tag}
	for _, spec := range schema.Fields {
		value, err := model.Get[any](obj, spec)
		if err != nil {
			if _, unset := err.(*model.FieldUnset); unset {
				continue
			}
			return nil, fmt.Errorf("serialize: field %q: %w", spec.Name, err)
		}

		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: spec.Name}
		valNode, err := dumpValue(value)
		if err != nil {
			return nil, fmt.Errorf("serialize: field %q: %w", spec.Name, err)
		}
		mapping.Content = append(mapping.Content, keyNode, valNode)
	}

	return mapping, nil
}

// dumpValue encodes a single field value. Wrapper containers
// (PersistentList/PersistentDict) implement yaml.Marshaler and are left to
// the generic encoder, which already calls MarshalYAML to flatten them to a
// bare sequence/mapping. Anything else that is itself a persistent object
// (model.Object) is recursed into via dumpNode instead of being handed to
// reflection-based encoding, which would see only the unexported state
// pointer inside its embedded Base and emit an empty mapping.
func dumpValue(value any) (*yaml.Node, error) {
	if value == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	if _, marshaler := value.(yaml.Marshaler); !marshaler {
		if nested, ok := value.(model.Object); ok {
			return dumpNode(nested)
		}
	}

	valNode := &yaml.Node{}
	if err := valNode.Encode(value); err != nil {
		return nil, err
	}
	return valNode, nil
}

// Load decodes a tagged YAML document into a freshly constructed object of
// the type registered for its tag.
func Load(data []byte) (model.Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Reason: "malformed document: " + err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &LoadError{Reason: "empty document"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{Reason: "document root is not a mapping"}
	}

	tag := strings.TrimPrefix(root.Tag, "!")
	schema, ok := model.SchemaByTag(tag)
	if !ok {
		return nil, &LoadError{Reason: fmt.Sprintf("unknown schema tag %q", tag)}
	}

	obj, err := loadNode(root, schema)
	if err != nil {
		return nil, &LoadError{Reason: err.Error()}
	}
	return obj, nil
}

// loadNode builds one object of the given schema from a tagged mapping
// node, setting each field it recognizes via loadValue/SetLoaded.
func loadNode(node *yaml.Node, schema *model.Schema) (model.Object, error) {
	obj := schema.New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		spec := schema.Field(name)
		if spec == nil {
			// Forward compatibility: ignore fields this schema version
			// doesn't know about.
			continue
		}

		value, err := loadValue(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if err := model.SetLoaded(obj, spec, value); err != nil {
			return nil, fmt.Errorf("field %q: %s", name, err)
		}
	}
	return obj, nil
}

// loadValue decodes one field's value node. A mapping node tagged with a
// registered schema tag is a nested persistent object, the counterpart of
// dumpValue's recursion, and is loaded via loadNode rather than generically
// decoded into a map. Everything else is decoded into interface{} and its
// integer scalars normalized, since yaml.v3 resolves plain integers into
// Go's int, never the int64 every field in this module is declared with.
func loadValue(node *yaml.Node) (any, error) {
	if node.Kind == yaml.MappingNode {
		tag := strings.TrimPrefix(node.Tag, "!")
		if schema, ok := model.SchemaByTag(tag); ok {
			return loadNode(node, schema)
		}
	}

	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	return normalizeNumeric(raw), nil
}

// normalizeNumeric widens every plain int decoded by yaml.v3 to int64,
// recursing into the generic slices and maps a bare (untagged) sequence or
// mapping decodes to. Nested persistent objects are excluded: they're
// already loaded field-by-field via loadNode/SetLoaded, which applies this
// same normalization to each field individually.
func normalizeNumeric(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeNumeric(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeNumeric(e)
		}
		return out
	default:
		return v
	}
}
