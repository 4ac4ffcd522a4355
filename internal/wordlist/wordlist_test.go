package wordlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"simple", "admin\nlogin\n", []string{"admin", "login"}},
		{"no trailing newline", "admin\nlogin", []string{"admin", "login"}},
		{"crlf", "admin\r\nlogin\r\n", []string{"admin", "login"}},
		{"duplicates kept", "admin\nadmin\n", []string{"admin", "admin"}},
		{"order kept", "zeta\nalpha\n", []string{"zeta", "alpha"}},
		{"opaque entries", "#comment\n /space \n\n.git/HEAD\n", []string{"#comment", " /space ", "", ".git/HEAD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(writeFile(t, ""))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadLongLine(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	got, err := Read(strings.NewReader(long + "\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{long, "b"}, got)
}
