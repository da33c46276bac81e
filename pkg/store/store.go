package store

import (
	"context"
	"io"
	"sync"

	"github.com/chrisrossi/dumpling/pkg/atomicfs"
	"github.com/chrisrossi/dumpling/pkg/blob"
	"github.com/chrisrossi/dumpling/pkg/model"
)

// Store is the facade a caller holds onto: the filesystem, an optional
// blob store, and the factory used to construct a fresh root the first
// time none exists on disk. It produces a fresh Session the first time one
// is needed, and again each time the previous one closes.
type Store struct {
	FS      *atomicfs.FS
	Blobs   *blob.Store
	Factory func() model.Folder

	mu      sync.Mutex
	session *Session
}

// New builds a Store rooted at fs, using factory to construct an initial
// root when none exists on disk yet.
func New(fs *atomicfs.FS, factory func() model.Folder) *Store {
	return &Store{FS: fs, Factory: factory}
}

// Session returns the store's current session, creating a fresh one if none
// exists yet or the previous one has closed. It does not join the session
// to any coordinator; callers join it, and FS, themselves.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.isClosed() {
		s.session = newSession(s)
	}
	return s.session, nil
}

// Root returns the current session's root, loading or constructing it as
// needed.
func (s *Store) Root(ctx context.Context) (model.Object, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.GetRoot(s.Factory)
}

// SetRoot replaces the current session's root.
func (s *Store) SetRoot(ctx context.Context, obj model.Object) error {
	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	return sess.SetRoot(obj)
}

// Flush forces the current session's in-memory tree to the staging
// filesystem without committing.
func (s *Store) Flush(ctx context.Context) error {
	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	return sess.Flush(ctx)
}

// AddBlob stores r's content via the configured blob store. It fails with
// Configuration if no blob store was given to New's caller.
func (s *Store) AddBlob(r io.Reader) (string, error) {
	if s.Blobs == nil {
		return "", &Configuration{Reason: "no blob store configured"}
	}
	return s.Blobs.Add(r)
}

// OpenBlob opens digest's content via the configured blob store.
func (s *Store) OpenBlob(digest string) (io.ReadCloser, error) {
	if s.Blobs == nil {
		return nil, &Configuration{Reason: "no blob store configured"}
	}
	return s.Blobs.Open(digest)
}
