package blob

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	digest, err := store.Add(bytes.NewBufferString("hello world"))
	require.NoError(t, err)
	assert.Len(t, digest, 40) // SHA-1 hex digest length

	r, err := store.Open(digest)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestAddIsContentAddressed(t *testing.T) {
	store := New(t.TempDir())

	a, err := store.Add(bytes.NewBufferString("same content"))
	require.NoError(t, err)
	b, err := store.Add(bytes.NewBufferString("same content"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSizeof(t *testing.T) {
	store := New(t.TempDir())

	digest, err := store.Add(bytes.NewBufferString("0123456789"))
	require.NoError(t, err)

	size, err := store.Sizeof(digest)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
}

func TestExists(t *testing.T) {
	store := New(t.TempDir())
	assert.False(t, store.Exists("0000000000000000000000000000000000000000"))

	digest, err := store.Add(bytes.NewBufferString("x"))
	require.NoError(t, err)
	assert.True(t, store.Exists(digest))
}

func TestBlobModelStoreAndOpen(t *testing.T) {
	store := New(t.TempDir())
	b := &Blob{}

	require.NoError(t, b.Store(store, bytes.NewBufferString("payload")))

	digest, err := b.Digest()
	require.NoError(t, err)
	assert.Len(t, digest, 40)

	size, err := b.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	r, err := b.Open(store)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
