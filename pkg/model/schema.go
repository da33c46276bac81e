package model

import (
	"fmt"
	"reflect"
	"sync"
)

// FieldSpec describes one field's validation and defaulting contract, the Go
// stand-in for the Python descriptor. Domain types don't hold a FieldSpec
// themselves -- they call Get/Set below, passing a pointer to a FieldSpec they
// declare once as a package-level value.
type FieldSpec struct {
	Name           string
	Nullable       bool
	Default        any
	DefaultFactory func() any
	Coerce         func(any) (any, error)
	Guard          func(any) error
}

// Schema is the registered description of a persistent type: its document
// tag, whether it is a folder, and its fields (informational -- Get/Set don't
// consult Schema.Fields, domain accessors reference their own FieldSpec
// directly; Schema.Fields exists for the serializer and for diagnostics).
type Schema struct {
	Tag    string
	Folder bool
	Fields []*FieldSpec
	New    func() Object
}

var (
	registryMu    sync.Mutex
	registryByTag = map[string]*Schema{}
	registryByType = map[reflect.Type]*Schema{}
)

// Register associates a Schema with the concrete Go type of sample. It is
// process-scoped state, the one piece of global mutable state the design
// calls for: a tag -> type dispatch table populated once, typically from an
// init() function alongside the type's declaration.
func Register(schema *Schema, sample Object) *Schema {
	registryMu.Lock()
	defer registryMu.Unlock()

	t := reflect.TypeOf(sample)
	if _, exists := registryByTag[schema.Tag]; exists {
		panic(fmt.Sprintf("model: schema tag %q already registered", schema.Tag))
	}
	registryByTag[schema.Tag] = schema
	registryByType[t] = schema
	return schema
}

// SchemaFor looks up the schema registered for obj's concrete type.
func SchemaFor(obj Object) (*Schema, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registryByType[reflect.TypeOf(obj)]
	return s, ok
}

// SchemaByTag looks up the schema registered under tag.
func SchemaByTag(tag string) (*Schema, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registryByTag[tag]
	return s, ok
}

// Field returns the FieldSpec registered under name, if any.
func (s *Schema) Field(name string) *FieldSpec {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsFolder reports whether obj's registered schema marks it as a folder.
func IsFolder(obj Object) bool {
	s, ok := SchemaFor(obj)
	return ok && s.Folder
}
