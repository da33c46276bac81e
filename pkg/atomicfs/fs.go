package atomicfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/chrisrossi/dumpling/pkg/txn"
)

// FS is a staged, copy-on-write view of a directory tree rooted at a real
// path on disk. Reads fall through staged -> actual; writes, mkdirs, and
// removes only ever touch the staged layer until Commit (driven through
// Vote/Finish) applies them to actual.
type FS struct {
	root   string
	staged afero.Fs
	actual afero.Fs

	mu      sync.Mutex
	written map[string]bool
	deleted map[string]bool

	pendingDir string
	pending    map[string]string // staged path -> temp file path, populated by Vote
}

// New opens a staged filesystem rooted at root. root must already exist.
func New(root string) *FS {
	return &FS{
		root:    root,
		staged:  afero.NewMemMapFs(),
		actual:  afero.NewBasePathFs(afero.NewOsFs(), root),
		written: make(map[string]bool),
		deleted: make(map[string]bool),
	}
}

func clean(path string) string {
	return filepath.ToSlash(filepath.Clean("/" + path))
}

func (f *FS) isDeleted(path string) bool {
	path = clean(path)
	for prefix := range f.deleted {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Exists reports whether path is present in the combined staged+actual view.
func (f *FS) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	if f.isDeleted(path) {
		return false
	}
	if _, err := f.staged.Stat(path); err == nil {
		return true
	}
	_, err := f.actual.Stat(path)
	return err == nil
}

// IsDir reports whether path names a directory in the combined view.
func (f *FS) IsDir(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	if f.isDeleted(path) {
		return false
	}
	if info, err := f.staged.Stat(path); err == nil {
		return info.IsDir()
	}
	info, err := f.actual.Stat(path)
	return err == nil && info.IsDir()
}

// ListDir returns the names of entries directly inside path, merging
// staged and actual, skipping anything deleted.
func (f *FS) ListDir(path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	seen := make(map[string]bool)
	var names []string

	add := func(entries []os.FileInfo) {
		for _, e := range entries {
			full := clean(filepath.Join(path, e.Name()))
			if f.isDeleted(full) || seen[e.Name()] {
				continue
			}
			seen[e.Name()] = true
			names = append(names, e.Name())
		}
	}

	if stagedEntries, err := afero.ReadDir(f.staged, path); err == nil {
		add(stagedEntries)
	}
	if actualEntries, err := afero.ReadDir(f.actual, path); err == nil {
		add(actualEntries)
	} else if _, statErr := f.staged.Stat(path); statErr != nil {
		return nil, fmt.Errorf("atomicfs: list %q: %w", path, err)
	}

	sort.Strings(names)
	return names, nil
}

// Open opens path for reading from the combined view.
func (f *FS) Open(path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	if f.isDeleted(path) {
		return nil, os.ErrNotExist
	}
	if file, err := f.staged.Open(path); err == nil {
		return file, nil
	}
	return f.actual.Open(path)
}

// OpenWrite returns a writer that stages path's new contents. The write is
// not visible to actual until a successful Commit.
func (f *FS) OpenWrite(path string) (io.WriteCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	if err := f.staged.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := f.staged.Create(path)
	if err != nil {
		return nil, err
	}
	delete(f.deleted, path)
	f.written[path] = true
	return file, nil
}

// Mkdir creates path (and any missing parents) in the staged layer.
func (f *FS) Mkdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	if err := f.staged.MkdirAll(path, 0o755); err != nil {
		return err
	}
	delete(f.deleted, path)
	f.written[path] = true
	return nil
}

// Remove marks path, and everything beneath it, deleted.
func (f *FS) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = clean(path)
	_ = f.staged.RemoveAll(path)
	for w := range f.written {
		if w == path || strings.HasPrefix(w, path+"/") {
			delete(f.written, w)
		}
	}
	f.deleted[path] = true
}

// RemoveTree is an alias for Remove: both delete path and its subtree.
func (f *FS) RemoveTree(path string) { f.Remove(path) }

// Move relocates src to dst within the staged layer. The content is copied
// into dst and src is marked deleted, so Commit writes dst and removes src
// on the real filesystem -- a session never depends on the underlying
// filesystem having a native rename for staged-only moves.
func (f *FS) Move(src, dst string) error {
	r, err := f.Open(src)
	if err != nil {
		return fmt.Errorf("atomicfs: move %q -> %q: %w", src, dst, err)
	}
	defer r.Close()

	w, err := f.OpenWrite(dst)
	if err != nil {
		return fmt.Errorf("atomicfs: move %q -> %q: %w", src, dst, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("atomicfs: move %q -> %q: %w", src, dst, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("atomicfs: move %q -> %q: %w", src, dst, err)
	}

	f.mu.Lock()
	f.deleted[clean(src)] = true
	f.mu.Unlock()
	return nil
}

// MoveTree relocates an entire file or directory subtree from src to dst.
// A file is relocated via Move; a directory is relocated by creating dst
// and recursively relocating each entry beneath src into the matching
// position beneath dst, then marking src (and anything left under it)
// deleted. There is no native directory rename available once the staged
// layer and the actual layer are two different afero filesystems, so a
// directory move is a recursive copy rather than a single syscall.
func (f *FS) MoveTree(src, dst string) error {
	src, dst = clean(src), clean(dst)
	if !f.IsDir(src) {
		return f.Move(src, dst)
	}

	names, err := f.ListDir(src)
	if err != nil {
		return fmt.Errorf("atomicfs: move tree %q -> %q: %w", src, dst, err)
	}
	if err := f.Mkdir(dst); err != nil {
		return fmt.Errorf("atomicfs: move tree %q -> %q: %w", src, dst, err)
	}
	for _, name := range names {
		if err := f.MoveTree(src+"/"+name, dst+"/"+name); err != nil {
			return err
		}
	}
	f.Remove(src)
	return nil
}

// SortKey identifies this participant by its root path.
func (f *FS) SortKey() string { return "atomicfs:" + f.root }

// Begin is a no-op: staging already happened as callers wrote through FS.
func (f *FS) Begin(ctx context.Context, tx *txn.Transaction) error { return nil }

// Vote copies every staged write out to a temp file under the real root,
// so that a write failure (disk full, permission denied) surfaces before
// any participant finishes.
func (f *FS) Vote(ctx context.Context, tx *txn.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pendingDir, err := os.MkdirTemp(f.root, ".dumpling-commit-*")
	if err != nil {
		return fmt.Errorf("atomicfs: vote: %w", err)
	}
	f.pendingDir = pendingDir
	f.pending = make(map[string]string)

	paths := make([]string, 0, len(f.written))
	for p := range f.written {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		info, err := f.staged.Stat(p)
		if err != nil {
			return fmt.Errorf("atomicfs: vote: stat %q: %w", p, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := afero.ReadFile(f.staged, p)
		if err != nil {
			return fmt.Errorf("atomicfs: vote: read %q: %w", p, err)
		}
		tmpPath := filepath.Join(pendingDir, fmt.Sprintf("%d", len(f.pending)))
		if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
			return fmt.Errorf("atomicfs: vote: stage %q: %w", p, err)
		}
		f.pending[p] = tmpPath
	}
	return nil
}

// Finish applies every staged directory creation, file write, and deletion
// to the real filesystem, then discards all staged state.
func (f *FS) Finish(ctx context.Context, tx *txn.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.resetLocked()

	deleted := make([]string, 0, len(f.deleted))
	for p := range f.deleted {
		deleted = append(deleted, p)
	}
	sort.Strings(deleted)
	for _, p := range deleted {
		if err := f.actual.RemoveAll(p); err != nil {
			return fmt.Errorf("atomicfs: finish: remove %q: %w", p, err)
		}
	}

	dirs := make([]string, 0, len(f.written))
	for p := range f.written {
		if _, isFile := f.pending[p]; !isFile {
			dirs = append(dirs, p)
		}
	}
	sort.Strings(dirs)
	for _, p := range dirs {
		if err := f.actual.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("atomicfs: finish: mkdir %q: %w", p, err)
		}
	}

	for p, tmpPath := range f.pending {
		if err := f.actual.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("atomicfs: finish: mkdir for %q: %w", p, err)
		}
		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return fmt.Errorf("atomicfs: finish: read staged %q: %w", p, err)
		}
		if err := afero.WriteFile(f.actual, p, data, 0o644); err != nil {
			return fmt.Errorf("atomicfs: finish: write %q: %w", p, err)
		}
	}

	return nil
}

// Abort discards all staged and pending state without touching actual.
func (f *FS) Abort(ctx context.Context, tx *txn.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	return nil
}

func (f *FS) resetLocked() {
	if f.pendingDir != "" {
		_ = os.RemoveAll(f.pendingDir)
	}
	f.staged = afero.NewMemMapFs()
	f.written = make(map[string]bool)
	f.deleted = make(map[string]bool)
	f.pendingDir = ""
	f.pending = nil
}

var _ txn.Participant = (*FS)(nil)
