package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxvaer/pathfuzz/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T) (*pflag.FlagSet, *config.Options) {
	t.Helper()
	o := config.Default()
	f := pflag.NewFlagSet("pathfuzz", pflag.ContinueOnError)
	registerFlags(f, &o)
	return f, &o
}

func TestDefaults(t *testing.T) {
	f, o := newFlags(t)
	require.NoError(t, f.Parse([]string{"-u", "example.com", "-w", "words.txt"}))

	notes, err := prepareOptions(f, o)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, config.DefaultThreads, o.Threads)
	assert.Equal(t, time.Second, o.Delay)
	assert.Equal(t, 10*time.Second, o.Timeout)
	assert.True(t, o.FollowRedirects)
	assert.Equal(t, "./output", o.OutputDir)
	assert.Equal(t, "fuzz", o.OutputName)
}

func TestDelayFlag(t *testing.T) {
	tests := []struct {
		arg  string
		want time.Duration
	}{
		{"1", time.Second},
		{"0.5", 500 * time.Millisecond},
		{"250ms", 250 * time.Millisecond},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			f, o := newFlags(t)
			require.NoError(t, f.Parse([]string{"--delay", tt.arg}))
			assert.Equal(t, tt.want, o.Delay)
		})
	}

	f, _ := newFlags(t)
	assert.Error(t, f.Parse([]string{"--delay", "soon"}))
}

func TestThreadsClamped(t *testing.T) {
	f, o := newFlags(t)
	require.NoError(t, f.Parse([]string{"-u", "x", "-w", "y", "-t", "0"}))
	notes, err := prepareOptions(f, o)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultThreads, o.Threads)
	assert.Len(t, notes, 1)

	f, o = newFlags(t)
	require.NoError(t, f.Parse([]string{"-u", "x", "-w", "y", "-t", "500"}))
	_, err = prepareOptions(f, o)
	require.NoError(t, err)
	assert.Equal(t, config.MaxThreads, o.Threads)
}

func TestConfigFileUnderFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfuzz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://from-file.example
wordlist: file-words.txt
threads: 20
delay: "0.25"
quiet: true
`), 0o644))

	f, o := newFlags(t)
	require.NoError(t, f.Parse([]string{"-c", path, "-t", "5"}))

	_, err := prepareOptions(f, o)
	require.NoError(t, err)
	assert.Equal(t, "https://from-file.example", o.URL)
	assert.Equal(t, "file-words.txt", o.WordlistPath)
	assert.Equal(t, 5, o.Threads, "explicit flag wins over the file")
	assert.Equal(t, 250*time.Millisecond, o.Delay)
	assert.True(t, o.Quiet)
}

func TestMissingTarget(t *testing.T) {
	f, o := newFlags(t)
	require.NoError(t, f.Parse([]string{"-w", "words.txt"}))
	_, err := prepareOptions(f, o)
	assert.Error(t, err)
}

func TestFormatFlag(t *testing.T) {
	f, _ := newFlags(t)

	line := formatFlag(f.Lookup("threads"))
	assert.Contains(t, line, "-t, --threads int")
	assert.Contains(t, line, "(default 10)")

	line = formatFlag(f.Lookup("skip-probe"))
	assert.Contains(t, line, "    --skip-probe")
	assert.NotContains(t, line, "default")

	line = formatFlag(f.Lookup("delay"))
	assert.Contains(t, line, "--delay seconds")
	assert.Contains(t, line, "(default 1s)")
}

func TestHelpGroupsCoverEveryFlag(t *testing.T) {
	listed := map[string]bool{}
	for _, g := range helpGroups {
		for _, name := range g.flags {
			listed[name] = true
			assert.NotNil(t, rootCmd.Flags().Lookup(name), "help lists unknown flag %q", name)
		}
	}
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "version" {
			return
		}
		assert.True(t, listed[f.Name], "flag %q missing from help", f.Name)
	})
}
