package model

// Folder is implemented by every persistent type registered with
// Schema.Folder = true. It carries no extra method set of its own -- a
// folder is a plain Object whose schema happens to say so -- but gives
// callers like a store's root factory a name for "a persistent object that
// is also a folder" instead of a bare Object.
type Folder interface {
	Object
}

// GenericFolder is a bare folder with no fields of its own beyond the ones
// every persistent object carries: a plain container, useful as a default
// root factory or as an intermediate directory-like node. Domain code that
// needs folder-typed fields should define its own schema instead.
type GenericFolder struct {
	Base
}

func init() {
	Register(&Schema{
		Tag:    "dumpling.folder",
		Folder: true,
		New:    func() Object { return &GenericFolder{} },
	}, &GenericFolder{})
}
