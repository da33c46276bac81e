package integration

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisrossi/dumpling/internal/cli"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand("test", "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMkdirAndLs(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "mkdir", dir, "pictures/vacation")
	require.NoError(t, err)

	out, err := run(t, "ls", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "folder pictures")

	out, err = run(t, "ls", dir, "pictures")
	require.NoError(t, err)
	assert.Contains(t, out, "folder vacation")
}

func TestPutGetRm(t *testing.T) {
	storeDir := t.TempDir()
	blobDir := t.TempDir()

	srcFile := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(srcFile, []byte("hello from the CLI"), 0o644))

	_, err := run(t, "--blobs", blobDir, "put", storeDir, "", "note", srcFile)
	require.NoError(t, err)

	out, err := run(t, "--blobs", blobDir, "get", storeDir, "", "note")
	require.NoError(t, err)
	assert.Equal(t, "hello from the CLI", out)

	_, err = run(t, "rm", storeDir, "", "note")
	require.NoError(t, err)

	_, err = run(t, "--blobs", blobDir, "get", storeDir, "", "note")
	assert.Error(t, err)
}

func TestMv(t *testing.T) {
	storeDir := t.TempDir()
	blobDir := t.TempDir()

	srcFile := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(srcFile, []byte("movable"), 0o644))

	_, err := run(t, "mkdir", storeDir, "archive")
	require.NoError(t, err)
	_, err = run(t, "--blobs", blobDir, "put", storeDir, "", "note", srcFile)
	require.NoError(t, err)

	_, err = run(t, "mv", storeDir, "", "note", "archive", "note-2")
	require.NoError(t, err)

	out, err := run(t, "ls", storeDir, "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "doc    note-2")

	out, err = run(t, "ls", storeDir)
	require.NoError(t, err)
	assert.NotContains(t, out, "note\n")
}

func TestGetWithoutBlobsConfigured(t *testing.T) {
	storeDir := t.TempDir()
	_, err := run(t, "get", storeDir, "", "note")
	require.Error(t, err)
}

func TestMetricsAddrServesHealthAndReadiness(t *testing.T) {
	storeDir := t.TempDir()
	const addr = "127.0.0.1:19876"

	go func() {
		_, _ = run(t, "--metrics-addr", addr, "ls", storeDir)
	}()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/ready")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	liveResp, err := http.Get("http://" + addr + "/live")
	require.NoError(t, err)
	defer liveResp.Body.Close()
	assert.Equal(t, http.StatusOK, liveResp.StatusCode)
}
