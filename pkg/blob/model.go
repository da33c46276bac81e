package blob

import (
	"io"

	"github.com/chrisrossi/dumpling/pkg/model"
)

var digestField = &model.FieldSpec{Name: "digest"}
var sizeField = &model.FieldSpec{Name: "size", Default: int64(0)}

// Blob is the persistent handle stored in the object tree: a digest and
// size pointing at content held in a Store, rather than the content
// itself.
type Blob struct {
	model.Base
}

func init() {
	model.Register(&model.Schema{
		Tag:    "dumpling.blob",
		Folder: false,
		Fields: []*model.FieldSpec{digestField, sizeField},
		New:    func() model.Object { return &Blob{} },
	}, &Blob{})
}

// Digest returns the SHA-1 hex digest of the referenced content.
func (b *Blob) Digest() (string, error) {
	return model.Get[string](b, digestField)
}

// Size returns the byte size of the referenced content.
func (b *Blob) Size() (int64, error) {
	return model.Get[int64](b, sizeField)
}

// Store writes r's content into store and points this Blob at the result.
func (b *Blob) Store(store *Store, r io.Reader) error {
	digest, err := store.Add(r)
	if err != nil {
		return err
	}
	size, err := store.Sizeof(digest)
	if err != nil {
		return err
	}
	if err := model.Set(b, digestField, digest); err != nil {
		return err
	}
	return model.Set(b, sizeField, size)
}

// Open returns a reader for this Blob's content in store.
func (b *Blob) Open(store *Store) (io.ReadCloser, error) {
	digest, err := b.Digest()
	if err != nil {
		return nil, err
	}
	return store.Open(digest)
}
