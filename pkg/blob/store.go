package blob

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrisrossi/dumpling/pkg/metrics"
)

// Store is a content-addressed store of binary payloads rooted at a
// directory on disk.
type Store struct {
	root string
}

// New returns a Store rooted at root. root must already exist.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) pathFor(digest string) string {
	return filepath.Join(s.root, digest)
}

// Add streams r into the store and returns its SHA-1 hex digest. The write
// goes to a temp file, which is hashed as it is written and renamed into
// its digest-named path only once the copy completes -- a reader that
// errors partway through never leaves a partial blob visible under any
// digest.
func (s *Store) Add(r io.Reader) (digest string, err error) {
	tmp, err := os.CreateTemp(s.root, "blob-*.tmp")
	if err != nil {
		return "", fmt.Errorf("blob: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	h := sha1.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, h), r)
	if copyErr != nil {
		err = copyErr
		tmp.Close()
		return "", fmt.Errorf("blob: write: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("blob: close temp file: %w", err)
	}
	metrics.BlobBytesWritten.Add(float64(n))

	digest = hex.EncodeToString(h.Sum(nil))
	dest := s.pathFor(digest)
	if _, statErr := os.Stat(dest); statErr == nil {
		// Already have this content under this digest; drop the temp
		// copy and treat the add as a no-op.
		os.Remove(tmpPath)
		return digest, nil
	}

	if err = os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("blob: rename into place: %w", err)
	}
	return digest, nil
}

// Open returns a reader for the blob with the given digest.
func (s *Store) Open(digest string) (io.ReadCloser, error) {
	f, err := os.Open(s.pathFor(digest))
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", digest, err)
	}
	return f, nil
}

// Sizeof returns the size in bytes of the blob with the given digest.
func (s *Store) Sizeof(digest string) (int64, error) {
	info, err := os.Stat(s.pathFor(digest))
	if err != nil {
		return 0, fmt.Errorf("blob: stat %s: %w", digest, err)
	}
	return info.Size(), nil
}

// Exists reports whether a blob with the given digest is present.
func (s *Store) Exists(digest string) bool {
	_, err := os.Stat(s.pathFor(digest))
	return err == nil
}
