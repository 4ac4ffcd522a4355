package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/maxvaer/pathfuzz/internal/config"
	"github.com/maxvaer/pathfuzz/internal/output"
	"github.com/maxvaer/pathfuzz/internal/scanner"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the console's concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeWordlist(t *testing.T, words []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordlist.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(words, "\n")), 0o644))
	return path
}

func testOpts(t *testing.T, serverURL, wordlistPath string) *config.Options {
	t.Helper()
	opts := config.Default()
	opts.URL = serverURL
	opts.WordlistPath = wordlistPath
	opts.Threads = 2
	opts.Delay = 0
	opts.SkipProbe = true
	opts.NoTech = true
	opts.NoColor = true
	opts.OutputDir = filepath.Join(t.TempDir(), "out")
	return &opts
}

// runCaptured runs a session with stderr captured and no keyboard input.
func runCaptured(t *testing.T, opts *config.Options) (string, error) {
	t.Helper()
	var stderr syncBuffer
	err := run(context.Background(), opts, env{
		stderr: &stderr,
		exit:   func(int) { t.Error("unexpected forced exit") },
	})
	return stderr.String(), err
}

// readResults returns the content of the result file for class c, or ""
// when the file was never created.
func readResults(t *testing.T, opts *config.Options, c scanner.Classification) string {
	t.Helper()
	path := output.NewSink(opts.OutputDir, opts.OutputName).Path(c)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}
