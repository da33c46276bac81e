/*
Package serialize round-trips persistent objects to tagged YAML documents
using gopkg.in/yaml.v3's low-level yaml.Node API.

A document is a single YAML mapping node whose tag identifies the schema
and whose keys are field names directly -- there is no synthetic wrapper
structure:

	!example.album
	name: pictures
	created: 2024-01-02T15:04:05Z

(for a type registered under the tag "example.album" with the fields
"name" and "created").

Dump looks up the object's registered schema (by its concrete Go type,
pkg/model.SchemaFor) and builds a yaml.Node of Kind MappingNode tagged
"!"+schema.Tag, with one key/value child pair per field that currently
has a value. Load parses the document into a yaml.Node, strips the
leading "!" to recover the tag, looks it up via pkg/model.SchemaByTag to
get a constructor, and walks the mapping's content pairs, decoding each
value generically and handing it to pkg/model.SetLoaded along with the
field's Schema.Field(name) spec. An unrecognized field is skipped rather
than rejected, so a document written by a newer schema version can still
be read by older code as long as the fields it does recognize are
present. An unrecognized tag is a LoadError, since there is no
constructor to dispatch to.

Field values that are themselves model.PersistentList / model.PersistentDict
marshal through their own MarshalYAML/UnmarshalYAML as bare sequences/maps,
and FieldSpec.Coerce rewraps a generically-decoded native slice/map back
into the wrapper type on load, so a document never exposes the wrapper
type to a human reading the file.
*/
package serialize
