package atomicfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*FS, string) {
	t.Helper()
	root := t.TempDir()
	return New(root), root
}

func TestOpenWriteIsStagedUntilFinish(t *testing.T) {
	fs, root := newTestFS(t)

	w, err := fs.OpenWrite("a.yaml")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, fs.Exists("a.yaml"))
	_, err = os.Stat(filepath.Join(root, "a.yaml"))
	assert.True(t, os.IsNotExist(err), "file should not exist on disk before commit")

	require.NoError(t, fs.Vote(context.Background(), nil))
	require.NoError(t, fs.Finish(context.Background(), nil))

	data, err := os.ReadFile(filepath.Join(root, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestAbortDiscardsStagedWrites(t *testing.T) {
	fs, root := newTestFS(t)

	w, err := fs.OpenWrite("a.yaml")
	require.NoError(t, err)
	_, _ = w.Write([]byte("hello"))
	require.NoError(t, w.Close())

	require.NoError(t, fs.Abort(context.Background(), nil))
	assert.False(t, fs.Exists("a.yaml"))

	_, err = os.Stat(filepath.Join(root, "a.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMasksExistingFile(t *testing.T) {
	fs, root := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.yaml"), []byte("x"), 0o644))

	assert.True(t, fs.Exists("a.yaml"))
	fs.Remove("a.yaml")
	assert.False(t, fs.Exists("a.yaml"))

	require.NoError(t, fs.Vote(context.Background(), nil))
	require.NoError(t, fs.Finish(context.Background(), nil))

	_, err := os.Stat(filepath.Join(root, "a.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestMoveRelocatesStagedContent(t *testing.T) {
	fs, root := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src.yaml"), []byte("payload"), 0o644))

	require.NoError(t, fs.Move("src.yaml", "dst/dst.yaml"))
	assert.False(t, fs.Exists("src.yaml"))
	assert.True(t, fs.Exists("dst/dst.yaml"))

	require.NoError(t, fs.Vote(context.Background(), nil))
	require.NoError(t, fs.Finish(context.Background(), nil))

	data, err := os.ReadFile(filepath.Join(root, "dst", "dst.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = os.Stat(filepath.Join(root, "src.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestListDirMergesStagedAndActual(t *testing.T) {
	fs, root := newTestFS(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "folder"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "on-disk.yaml"), []byte("x"), 0o644))

	w, err := fs.OpenWrite("folder/staged.yaml")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := fs.ListDir("folder")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"on-disk.yaml", "staged.yaml"}, names)
}

func TestMoveTreeRelocatesDirectory(t *testing.T) {
	fs, root := newTestFS(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "__index__.yaml"), []byte("idx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "nested", "leaf.yaml"), []byte("leaf"), 0o644))

	require.NoError(t, fs.MoveTree("src", "dst"))
	assert.False(t, fs.Exists("src"))
	assert.True(t, fs.Exists("dst/__index__.yaml"))
	assert.True(t, fs.Exists("dst/nested/leaf.yaml"))

	require.NoError(t, fs.Vote(context.Background(), nil))
	require.NoError(t, fs.Finish(context.Background(), nil))

	data, err := os.ReadFile(filepath.Join(root, "dst", "nested", "leaf.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(data))

	_, err = os.Stat(filepath.Join(root, "src"))
	assert.True(t, os.IsNotExist(err))
}

func TestListDirExcludesDeletedEntries(t *testing.T) {
	fs, root := newTestFS(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "folder"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "a.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "b.yaml"), []byte("x"), 0o644))

	fs.Remove("folder/a.yaml")

	names, err := fs.ListDir("folder")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.yaml"}, names)
}
