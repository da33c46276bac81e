package store

import (
	"sort"
	"strings"

	"github.com/chrisrossi/dumpling/pkg/atomicfs"
	"github.com/chrisrossi/dumpling/pkg/metrics"
	"github.com/chrisrossi/dumpling/pkg/model"
)

// folderEntry is the per-child record held in a folder's contents cache: it
// tracks whether the child is loaded, where it lives on disk, whether it is
// pending deletion, and the bookkeeping needed to move or supersede it on
// save rather than losing data.
type folderEntry struct {
	name         string
	isFolder     bool
	loaded       model.Object
	path         string // logical path, no suffix
	file         string // on-disk document path
	deleted      bool
	detachedFrom string // old logical path, set when an unloaded entry was relocated here
	replaces     *folderEntry
}

// folderContents is the insertion-ordered name -> entry cache described by
// the folder-contents-cache component: the first access lists the backing
// directory once, after which the cache alone is authoritative for the rest
// of the session.
type folderContents struct {
	order   []string
	entries map[string]*folderEntry
	sortKey func(string) string
	listed  bool
}

func newFolderContents() *folderContents {
	return &folderContents{entries: make(map[string]*folderEntry)}
}

// setEntry stores e under name, appending name to the insertion order only
// the first time it is ever seen (a same-name replace keeps its original
// position).
func (fc *folderContents) setEntry(name string, e *folderEntry) {
	if _, exists := fc.entries[name]; !exists {
		fc.order = append(fc.order, name)
		metrics.FolderEntriesCached.Inc()
	}
	fc.entries[name] = e
}

// visibleNames returns names whose current entry is not deleted, in
// insertion order unless sortKey reorders them.
func (fc *folderContents) visibleNames() []string {
	names := make([]string, 0, len(fc.order))
	for _, name := range fc.order {
		if e := fc.entries[name]; e != nil && !e.deleted {
			names = append(names, name)
		}
	}
	if fc.sortKey != nil {
		sort.SliceStable(names, func(i, j int) bool {
			return fc.sortKey(names[i]) < fc.sortKey(names[j])
		})
	}
	return names
}

// ensureListed lists path on fs the first time it is called; later calls
// are no-ops, matching the "authoritative cache" contract -- a deleted
// entry never resurfaces from a subsequent listing.
func (fc *folderContents) ensureListed(fs *atomicfs.FS, path string) error {
	if fc.listed {
		return nil
	}
	fc.listed = true
	if !fs.Exists(path) {
		return nil
	}

	names, err := fs.ListDir(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == indexDocName {
			continue
		}
		if strings.HasSuffix(name, docSuffix) {
			childName := strings.TrimSuffix(name, docSuffix)
			childPath := joinPath(path, childName)
			fc.setEntry(childName, &folderEntry{
				name: childName,
				path: childPath,
				file: childPath + docSuffix,
			})
			continue
		}

		childPath := joinPath(path, name)
		indexFile := joinPath(childPath, indexDocName)
		if fs.Exists(indexFile) {
			fc.setEntry(name, &folderEntry{
				name:     name,
				isFolder: true,
				path:     childPath,
				file:     indexFile,
			})
		}
	}
	return nil
}

// contentsOf returns folder's contents cache, allocating an empty one on
// first use.
func contentsOf(folder model.Object) *folderContents {
	st := folder.State()
	fc, ok := st.FolderContents.(*folderContents)
	if !ok {
		fc = newFolderContents()
		st.FolderContents = fc
	}
	return fc
}

// ensureListedFor lists folder's backing directory the first time it is
// accessed, if folder is attached to a live session; an unattached or
// detached folder has nothing on disk to list.
func ensureListedFor(folder model.Object) error {
	fc := contentsOf(folder)
	if fc.listed {
		return nil
	}
	st := folder.State()
	if st.Attach != model.Live {
		fc.listed = true
		return nil
	}
	sess, ok := st.SessionRef.(*Session)
	if !ok || sess == nil {
		fc.listed = true
		return nil
	}
	return fc.ensureListed(sess.fs, st.Path)
}

// SetSortKey makes folder iterate its children ordered by fn(name) instead
// of insertion order. Passing nil reverts to insertion order.
func SetSortKey(folder model.Object, fn func(string) string) {
	contentsOf(folder).sortKey = fn
}

// Contains reports whether name is a live (non-deleted) entry of folder.
func Contains(folder model.Object, name string) bool {
	if err := ensureListedFor(folder); err != nil {
		return false
	}
	e := contentsOf(folder).entries[name]
	return e != nil && !e.deleted
}

// Get returns the child named name, materializing it from disk on first
// access and caching the result on its entry.
func Get(folder model.Object, name string) (model.Object, error) {
	if err := ensureListedFor(folder); err != nil {
		return nil, err
	}
	fc := contentsOf(folder)
	e := fc.entries[name]
	if e == nil || e.deleted {
		return nil, &KeyMissing{Name: name}
	}
	if e.loaded != nil {
		return e.loaded, nil
	}

	st := folder.State()
	sess, ok := st.SessionRef.(*Session)
	if !ok || sess == nil {
		return nil, &KeyMissing{Name: name}
	}
	obj, err := sess.load(e.path, e.file, folder, name)
	if err != nil {
		return nil, err
	}
	e.loaded = obj
	return obj, nil
}

// Set attaches obj into folder under name. obj must not already be live
// elsewhere (AlreadyAttached). If name already names a live entry, the new
// entry replaces it, preserving the displaced entry's own replaces-chain so
// its on-disk footprint is still removed on save even across repeated
// same-name assignment within one transaction.
func Set(folder model.Object, name string, obj model.Object) error {
	if obj == nil {
		return &model.NotAModel{Name: name}
	}
	objState := obj.State()
	if objState.Attach == model.Live {
		return &model.AlreadyAttached{Name: name, Path: objState.Path}
	}

	if err := ensureListedFor(folder); err != nil {
		return err
	}
	fc := contentsOf(folder)

	newEntry := &folderEntry{
		name:         name,
		isFolder:     model.IsFolder(obj),
		loaded:       obj,
		detachedFrom: objState.DetachedFrom,
	}
	if old, exists := fc.entries[name]; exists {
		candidate := old
		if old.replaces != nil {
			candidate = old.replaces
		}
		if candidate.path != "" {
			newEntry.replaces = candidate
		}
	}
	fc.setEntry(name, newEntry)
	model.SetFolderDirty(folder)

	folderState := folder.State()
	if folderState.Attach == model.Live {
		sess, _ := folderState.SessionRef.(*Session)
		relocating := objState.Attach == model.Detached
		newPath := joinPath(folderState.Path, name)
		newFile := docFile(newPath, newEntry.isFolder)
		attachTree(sess, obj, newPath, newFile, folder, name, relocating)
	}
	model.SetDirty(obj)
	return nil
}

// Delete marks name removed from folder. If the child was loaded, its whole
// subtree is recursively marked detached so it may still be grafted
// elsewhere later in the same transaction; an unloaded subtree needs no
// such bookkeeping since it is never touched in memory before commit.
func Delete(folder model.Object, name string) error {
	if err := ensureListedFor(folder); err != nil {
		return err
	}
	fc := contentsOf(folder)
	e := fc.entries[name]
	if e == nil || e.deleted {
		return &KeyMissing{Name: name}
	}
	e.deleted = true
	model.SetFolderDirty(folder)
	if e.loaded != nil {
		detachTree(e.loaded)
	}
	return nil
}

// Pop removes and returns the child named name.
func Pop(folder model.Object, name string) (model.Object, error) {
	obj, err := Get(folder, name)
	if err != nil {
		return nil, err
	}
	if err := Delete(folder, name); err != nil {
		return nil, err
	}
	return obj, nil
}

// Keys returns the live child names of folder, in cache order.
func Keys(folder model.Object) ([]string, error) {
	if err := ensureListedFor(folder); err != nil {
		return nil, err
	}
	return contentsOf(folder).visibleNames(), nil
}

// Values returns the live children of folder, materializing each as needed.
func Values(folder model.Object) ([]model.Object, error) {
	names, err := Keys(folder)
	if err != nil {
		return nil, err
	}
	out := make([]model.Object, 0, len(names))
	for _, name := range names {
		obj, err := Get(folder, name)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Item is one name/object pair returned by Items.
type Item struct {
	Name   string
	Object model.Object
}

// Items returns the live name/child pairs of folder, in cache order.
func Items(folder model.Object) ([]Item, error) {
	names, err := Keys(folder)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(names))
	for _, name := range names {
		obj, err := Get(folder, name)
		if err != nil {
			return nil, err
		}
		out = append(out, Item{Name: name, Object: obj})
	}
	return out, nil
}
