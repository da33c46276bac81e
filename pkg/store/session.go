package store

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/chrisrossi/dumpling/pkg/atomicfs"
	"github.com/chrisrossi/dumpling/pkg/blob"
	"github.com/chrisrossi/dumpling/pkg/log"
	"github.com/chrisrossi/dumpling/pkg/metrics"
	"github.com/chrisrossi/dumpling/pkg/model"
	"github.com/chrisrossi/dumpling/pkg/serialize"
	"github.com/chrisrossi/dumpling/pkg/txn"
)

// Session is the per-transaction mutation tracker: it lazily materializes
// the object tree from the filesystem, tracks dirtiness, and performs the
// rooted save traversal on vote. It implements txn.Participant so a
// Coordinator can drive it alongside the underlying atomicfs.FS.
type Session struct {
	mu    sync.Mutex
	store *Store
	fs    *atomicfs.FS
	blobs *blob.Store

	root    model.Object
	rootSet bool
	closed  bool
}

func newSession(s *Store) *Session {
	metrics.SessionsStarted.Inc()
	return &Session{store: s, fs: s.FS, blobs: s.Blobs}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SortKey must compare less than the underlying filesystem's, so that this
// session's staged writes land before the filesystem's own commit finalizes
// them. "Session:" sorts before "atomicfs:" (every uppercase ASCII letter
// precedes every lowercase one), which is all that's required here.
func (s *Session) SortKey() string {
	return "Session:" + strings.TrimPrefix(s.fs.SortKey(), "atomicfs:")
}

func (s *Session) Begin(ctx context.Context, tx *txn.Transaction) error {
	return nil
}

// Vote runs the save traversal, writing every dirty or relocated document
// to the staging filesystem. It is the sole phase that writes.
func (s *Session) Vote(ctx context.Context, tx *txn.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &Configuration{Reason: "session is closed"}
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SaveDuration)
	return s.flushLocked(ctx)
}

func (s *Session) Finish(ctx context.Context, tx *txn.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	metrics.SessionsFinished.WithLabelValues("committed").Inc()
	return nil
}

func (s *Session) Abort(ctx context.Context, tx *txn.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	metrics.SessionsFinished.WithLabelValues("aborted").Inc()
	return nil
}

var _ txn.Participant = (*Session)(nil)

// Flush forces the in-memory tree to be written to the staging filesystem
// without committing. It is idempotent and safe to call repeatedly.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &Configuration{Reason: "session is closed"}
	}
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	if !s.rootSet {
		return nil
	}
	var removals []*folderEntry
	if err := s.save(ctx, s.root, &removals); err != nil {
		return err
	}
	// Deleted entries are removed only once the whole traversal is done, so
	// a subtree relocated out of a deleted folder can still be read from its
	// old location while it is being moved.
	for _, e := range removals {
		removeEntry(s.fs, e)
	}
	return nil
}

// GetRoot returns this session's cached root, loading the root document on
// first access, or constructing a fresh dirty root via factory if no root
// document exists yet. Identity is stable for the life of the session.
func (s *Session) GetRoot(factory func() model.Folder) (model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &Configuration{Reason: "session is closed"}
	}
	if s.rootSet {
		return s.root, nil
	}

	rootFile := docFile("/", true)
	if s.fs.Exists(rootFile) {
		obj, err := s.load("/", rootFile, nil, "")
		if err != nil {
			return nil, err
		}
		s.root = obj
		s.rootSet = true
		return obj, nil
	}

	obj := factory()
	st := obj.State()
	st.Attach = model.Live
	st.SessionRef = s
	st.Path = "/"
	st.File = rootFile
	model.SetDirty(obj)
	s.root = obj
	s.rootSet = true
	return obj, nil
}

// SetRoot replaces the session's cached root, marking it dirty. If obj was
// previously attached elsewhere (Detached), its subtree is relocated rather
// than treated as brand new.
func (s *Session) SetRoot(obj model.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &Configuration{Reason: "session is closed"}
	}

	st := obj.State()
	if st.Attach == model.Live {
		return &model.AlreadyAttached{Name: "", Path: st.Path}
	}
	relocating := st.Attach == model.Detached
	attachTree(s, obj, "/", docFile("/", true), nil, "", relocating)
	model.SetDirty(obj)

	s.root = obj
	s.rootSet = true
	return nil
}

// load reads and deserializes file, attaching the resulting object at path
// under parent/name.
func (s *Session) load(path, file string, parent model.Object, name string) (model.Object, error) {
	r, err := s.fs.Open(file)
	if err != nil {
		return nil, &LoadError{Path: file, Err: err}
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, &LoadError{Path: file, Err: err}
	}

	obj, err := serialize.Load(data)
	if err != nil {
		return nil, &LoadError{Path: file, Err: err}
	}

	st := obj.State()
	st.Attach = model.Live
	st.SessionRef = s
	st.Parent = parent
	st.Name = name
	st.Path = path
	st.File = file

	metrics.ObjectsLoaded.Inc()
	logger := log.WithPath(path)
	logger.Debug().Msg("loaded object")
	return obj, nil
}

// save is the rooted depth-first save traversal run on vote/flush: it
// writes obj if dirty or relocated, then, if obj is a folder, processes
// every cached entry -- collecting deleted ones into removals (removed by
// flushLocked after the traversal), removing whatever a loaded entry
// replaces, recursively saving loaded children that actually changed, and
// relocating unloaded entries that were moved wholesale without ever being
// materialized.
func (s *Session) save(ctx context.Context, obj model.Object, removals *[]*folderEntry) error {
	st := obj.State()
	if st.Dirty || st.DetachedFrom != "" {
		if err := s.writeDocument(obj); err != nil {
			return err
		}
		st.Dirty = false
		st.DetachedFrom = ""
	}

	if !model.IsFolder(obj) {
		return nil
	}
	fc, ok := st.FolderContents.(*folderContents)
	if !ok {
		st.DirtyChildren = false
		return nil
	}

	for _, name := range fc.order {
		e := fc.entries[name]
		if e == nil {
			continue
		}
		if e.deleted {
			*removals = append(*removals, e)
			continue
		}
		if e.loaded != nil {
			if e.replaces != nil {
				removeEntry(s.fs, e.replaces)
				e.replaces = nil
			}
			cst := e.loaded.State()
			if cst.DetachedFrom != "" || cst.Dirty || cst.DirtyChildren {
				if err := s.save(ctx, e.loaded, removals); err != nil {
					return err
				}
			}
			continue
		}
		if e.detachedFrom != "" {
			if err := s.moveEntry(e); err != nil {
				return err
			}
			e.detachedFrom = ""
		}
	}
	st.DirtyChildren = false
	return nil
}

func (s *Session) writeDocument(obj model.Object) error {
	data, err := serialize.Dump(obj)
	if err != nil {
		return err
	}
	st := obj.State()
	w, err := s.fs.OpenWrite(st.File)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	metrics.ObjectsSaved.Inc()
	metrics.DocumentBytesWritten.Add(float64(len(data)))
	logger := log.WithPath(st.Path)
	logger.Debug().Msg("wrote document")
	return nil
}

// removeEntry deletes e's on-disk footprint: rmtree for a folder, rm for a
// leaf's document file. An entry with no path was never attached to
// anything on disk and has nothing to remove.
func removeEntry(fs *atomicfs.FS, e *folderEntry) {
	if e.path == "" {
		return
	}
	if e.isFolder {
		fs.RemoveTree(e.path)
	} else {
		fs.Remove(e.file)
	}
}

// moveEntry relocates an unloaded entry's bytes from its old location to
// its current one.
func (s *Session) moveEntry(e *folderEntry) error {
	if e.detachedFrom == "" || e.path == "" {
		return nil
	}
	if e.isFolder {
		return s.fs.MoveTree(e.detachedFrom, e.path)
	}
	return s.fs.Move(e.detachedFrom+docSuffix, e.file)
}
