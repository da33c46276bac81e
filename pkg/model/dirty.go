package model

// SetDirty marks the nearest persistent ancestor of obj (obj itself, unless
// obj's Top points elsewhere) dirty, then walks the parent chain marking
// DirtyChildren up to the root. This is the single entry point field writes
// and wrapper container mutations use to signal the save traversal.
func SetDirty(obj Object) {
	st := obj.State()
	top := st.Top
	if top == nil {
		top = obj
	}
	top.State().Dirty = true
	SetFolderDirty(top.State().Parent)
}

// SetFolderDirty marks folder and every ancestor of folder as having dirty
// children. Used directly by folder membership changes (insert/delete) that
// don't dirty any field value but still require the save traversal to
// descend.
func SetFolderDirty(folder Object) {
	for folder != nil {
		folder.State().DirtyChildren = true
		folder = folder.State().Parent
	}
}

// connector is implemented by wrapper containers: after a child is inserted,
// the container must recursively re-parent its own nested children's Top.
type connector interface {
	connectChildren()
}

// promoteTop re-parents value's Top to match container's Top (or container
// itself, if it is the top), recursing into nested wrapper containers.
func promoteTop(container Object, value any) {
	top := container.State().Top
	if top == nil {
		top = container
	}
	promoteTopTo(top, value)
}

func promoteTopTo(top Object, value any) {
	obj, ok := value.(Object)
	if !ok {
		return
	}
	obj.State().Top = top
	if c, ok := value.(connector); ok {
		c.connectChildren()
	}
}
