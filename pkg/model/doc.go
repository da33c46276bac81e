/*
Package model defines the persistent object primitives that dumpling documents
are built from: the per-object state block, schema/field descriptors, and the
wrapper sequence and mapping types that track dirtiness on mutation.

A persistent type embeds Base, which lazily owns a separately allocated State.
State carries everything the session needs to know about an object's place in
the tree (path, parent, attachment, dirtiness) without polluting the domain
type's own fields -- the Go realization of the "two separated allocations"
design described for the store's tree identity.

# Architecture

	┌─────────────────────── MODEL LAYER ───────────────────────┐
	│                                                             │
	│  ┌───────────────────────────────────────────┐            │
	│  │              Object + Base                  │            │
	│  │  - Base embeds a lazily allocated *State    │            │
	│  │  - State: Dirty, DirtyChildren, Attach,     │            │
	│  │    Path, File, Parent, Name, Top,           │            │
	│  │    DetachedFrom, FolderContents (opaque)    │            │
	│  └──────────────────┬──────────────────────────┘            │
	│                     │                                        │
	│  ┌──────────────────▼──────────────────────────┐            │
	│  │            Schema registry                    │            │
	│  │  - Register(schema, sample)                  │            │
	│  │  - SchemaFor(obj) / SchemaByTag(tag)         │            │
	│  │  - process-scoped, guarded by a mutex         │            │
	│  └──────────────────┬──────────────────────────┘            │
	│                     │                                        │
	│  ┌──────────────────▼──────────────────────────┐            │
	│  │         Field descriptors (Get/Set)          │            │
	│  │  - default value or factory                  │            │
	│  │  - nullability, coerce, type guard            │            │
	│  │  - every write dirties the owning object      │            │
	│  └──────────────────┬──────────────────────────┘            │
	│                     │                                        │
	│  ┌──────────────────▼──────────────────────────┐            │
	│  │      Wrapper containers (List / Dict)        │            │
	│  │  - re-parent inserted persistent children     │            │
	│  │  - dirty their Top on every mutation           │            │
	│  └───────────────────────────────────────────────┘           │
	└─────────────────────────────────────────────────────────────┘

Go has no attribute descriptors, so fields are declared with explicit accessor
methods on the domain type that call Get/Set against a *FieldSpec, and container
fields are declared directly as PersistentList[T]/PersistentDict[V] rather than
plain slices/maps that get swapped for a wrapper type at access time.
*/
package model
