package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "item.bin")

	w := &FileWriter{Path: path}
	require.NoError(t, w.WriteArchive([]byte{1, 2, 3}))
	require.NoError(t, w.WriteArchive([]byte{4, 5}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileWriterBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "person.bin")
	w := &FileWriter{Path: path, Backup: true, Perm: 0o600}

	require.NoError(t, w.WriteArchive([]byte{1}))
	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup of a file that did not exist")

	require.NoError(t, w.WriteArchive([]byte{2}))
	require.NoError(t, w.WriteArchive([]byte{3}))
	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, bak)
	cur, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, cur)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMemWriterCopies(t *testing.T) {
	src := []byte{7, 8}
	var w MemWriter
	require.NoError(t, w.WriteArchive(src))
	src[0] = 0
	assert.Equal(t, []byte{7, 8}, w.Buf)

	first := w.Buf
	require.NoError(t, w.WriteArchive([]byte{9}))
	assert.Equal(t, []byte{7, 8}, first, "earlier results are not overwritten")
	assert.Equal(t, 2, w.Writes)
}
