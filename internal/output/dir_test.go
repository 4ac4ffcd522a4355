package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareDirCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	created, files, err := PrepareDir(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, files)
	assert.DirExists(t, dir)
}

func TestPrepareDirListsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	created, files, err := PrepareDir(dir)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"a.txt", "b.txt"}, files)
}

func TestPrepareDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, _, err := PrepareDir(path)
	assert.Error(t, err)
}
