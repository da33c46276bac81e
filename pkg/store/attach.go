package store

import "github.com/chrisrossi/dumpling/pkg/model"

// attachTree attaches obj at newPath/newFile under parent/name, recursing
// into any cached folder contents so an already-populated subtree (loaded
// children and unloaded entries alike) follows along. relocating marks a
// genuine move of a previously-attached subtree (obj was Detached, not
// freshly constructed): in that case every object and entry touched records
// its old path as detachedFrom, so the save traversal can either rewrite a
// loaded object at its new location or move an unloaded entry's bytes
// directly, instead of treating the whole subtree as brand new.
func attachTree(sess *Session, obj model.Object, newPath, newFile string, parent model.Object, name string, relocating bool) {
	st := obj.State()
	oldPath := st.Path

	st.Attach = model.Live
	st.SessionRef = sess
	st.Parent = parent
	st.Name = name
	st.Path = newPath
	st.File = newFile
	if relocating && oldPath != "" {
		st.DetachedFrom = oldPath
	}

	if !model.IsFolder(obj) {
		return
	}
	if relocating && oldPath != "" && sess != nil {
		// A relocated folder whose directory was never listed still has its
		// children on disk under oldPath: list them there so they follow.
		_ = contentsOf(obj).ensureListed(sess.fs, oldPath)
	}
	fc, ok := st.FolderContents.(*folderContents)
	if !ok {
		return
	}
	for _, e := range fc.entries {
		if e.deleted {
			continue
		}
		oldEntryPath := e.path
		e.path = joinPath(newPath, e.name)
		e.file = docFile(e.path, e.isFolder)
		if e.loaded != nil {
			attachTree(sess, e.loaded, e.path, e.file, obj, e.name, relocating)
		} else if relocating && oldEntryPath != "" {
			e.detachedFrom = oldEntryPath
		}
	}
}

// detachTree marks obj, and every loaded descendant reachable through its
// folder contents cache, as detached -- removed from a live tree but still
// eligible to be grafted in elsewhere within the same transaction.
// Unloaded descendants need no individual bookkeeping: if the subtree is
// never re-attached, the owning folder's deleted entry is enough for the
// save traversal to remove it outright.
func detachTree(obj model.Object) {
	st := obj.State()
	st.Attach = model.Detached
	st.DetachedFrom = st.Path

	if !model.IsFolder(obj) {
		return
	}
	fc, ok := st.FolderContents.(*folderContents)
	if !ok {
		return
	}
	for _, e := range fc.entries {
		if e.deleted || e.loaded == nil {
			continue
		}
		detachTree(e.loaded)
	}
}
