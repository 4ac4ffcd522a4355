package runner

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/maxvaer/pathfuzz/internal/output"
	"github.com/maxvaer/pathfuzz/internal/probe"
	"github.com/maxvaer/pathfuzz/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/admin":
			fmt.Fprint(w, "admin page")
		case "/secret":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunWritesClassifiedResults(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin", "secret", "missing"}))

	stderr, err := runCaptured(t, opts)
	require.NoError(t, err)

	assert.Equal(t, output.FormatLine(srv.URL+"/admin", int64(len("admin page"))), readResults(t, opts, scanner.Found))
	assert.Equal(t, output.FormatLine(srv.URL+"/secret", 0), readResults(t, opts, scanner.Forbidden))

	assert.Contains(t, stderr, fmt.Sprintf("[!] Starting fuzzing on %s with 3 items", srv.URL))
	assert.Contains(t, stderr, "| HTTP 200 ]     "+srv.URL+"/admin")
	assert.Contains(t, stderr, "| HTTP 404 ]     "+srv.URL+"/missing")
	assert.Contains(t, stderr, "3/3 words (dispatched 3) | 200: 1 | 403: 1 | Others: 1")
	assert.Contains(t, stderr, "[!] Fuzzer stopped, exiting cleanly.")
	assert.Contains(t, stderr, "[*] 1 result(s) appended to "+filepath.Join(opts.OutputDir, "fuzz_200_fuzz.txt"))
	assert.Contains(t, stderr, "[*] 1 result(s) appended to "+filepath.Join(opts.OutputDir, "fuzz_403_fuzz.txt"))
}

func TestRunNoMatchesCreatesNoFiles(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"a", "b"}))

	_, err := runCaptured(t, opts)
	require.NoError(t, err)

	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunQuietHidesOthers(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin", "missing"}))
	opts.Quiet = true

	stderr, err := runCaptured(t, opts)
	require.NoError(t, err)

	assert.Contains(t, stderr, srv.URL+"/admin")
	assert.NotContains(t, stderr, srv.URL+"/missing")
	assert.NotContains(t, stderr, "Starting fuzzing")
}

func TestRunSkipProbeAddsScheme(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, strings.TrimPrefix(srv.URL, "http://"), writeWordlist(t, []string{"admin"}))

	_, err := runCaptured(t, opts)
	require.NoError(t, err)
	assert.Contains(t, readResults(t, opts, scanner.Found), srv.URL+"/admin")
}

func TestRunProbeFollowsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			http.Redirect(w, r, "/app/", http.StatusMovedPermanently)
		case "/app/", "/app/login":
			w.Header().Set("Server", "test-server")
			fmt.Fprint(w, "ok")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"login", "nope"}))
	opts.SkipProbe = false

	stderr, err := runCaptured(t, opts)
	require.NoError(t, err)

	assert.Contains(t, stderr, "[URL CHECK] Redirection chain:")
	assert.Contains(t, stderr, "Final URL: "+srv.URL+"/app/")
	assert.Contains(t, stderr, "[URL CHECK] Server Header: test-server")
	assert.Contains(t, stderr, "[URL CHECK] HTTP Status: 200 (reachable)")
	assert.Contains(t, readResults(t, opts, scanner.Found), srv.URL+"/app/login")
}

func TestRunUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin"}))
	opts.SkipProbe = false

	stderr, err := runCaptured(t, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, probe.ErrUnreachable)
	assert.Contains(t, stderr, "HTTP Status: 503 (skipping)")

	_, statErr := os.Stat(opts.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "output directory must not be created for an unreachable target")
}

func TestRunMissingWordlist(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, filepath.Join(t.TempDir(), "nope.txt"))

	_, err := runCaptured(t, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading wordlist")
}

func TestRunReportsOutputDir(t *testing.T) {
	srv := newSite(t)

	t.Run("created", func(t *testing.T) {
		opts := testOpts(t, srv.URL, writeWordlist(t, []string{"x"}))
		stderr, err := runCaptured(t, opts)
		require.NoError(t, err)
		assert.Contains(t, stderr, "does not exist. Created it.")
		assert.DirExists(t, opts.OutputDir)
	})

	t.Run("existing files listed", func(t *testing.T) {
		opts := testOpts(t, srv.URL, writeWordlist(t, []string{"x"}))
		require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(opts.OutputDir, "old.txt"), nil, 0o644))

		stderr, err := runCaptured(t, opts)
		require.NoError(t, err)
		assert.Contains(t, stderr, "  - old.txt")
	})
}

func TestRunAppendsAcrossSessions(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin"}))

	for i := 0; i < 2; i++ {
		_, err := runCaptured(t, opts)
		require.NoError(t, err)
	}

	line := output.FormatLine(srv.URL+"/admin", int64(len("admin page")))
	assert.Equal(t, line+line, readResults(t, opts, scanner.Found))
}

func TestRunMetricsEndpoint(t *testing.T) {
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin"}))
	opts.MetricsAddr = "127.0.0.1:0"

	stderr, err := runCaptured(t, opts)
	require.NoError(t, err)
	assert.Contains(t, stderr, "[*] Metrics available at http://127.0.0.1:")
}

func TestRunOnResultHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook uses sh")
	}
	srv := newSite(t)
	opts := testOpts(t, srv.URL, writeWordlist(t, []string{"admin", "secret", "missing"}))
	hits := filepath.Join(t.TempDir(), "hits.txt")
	opts.OnResultCmd = "echo {status} {word} >> " + hits

	_, err := runCaptured(t, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(hits)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.ElementsMatch(t, []string{"200 admin", "403 secret"}, lines)
}
