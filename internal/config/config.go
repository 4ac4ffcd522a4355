package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultThreads   = 10
	MaxThreads       = 50
	DefaultDelay     = time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultOutputDir = "./output"
	DefaultName      = "fuzz"
)

// Options holds all configuration for a pathfuzz run.
type Options struct {
	// Target
	URL          string
	WordlistPath string

	// Performance
	Threads   int
	Delay     time.Duration // per-worker pause after each word
	Timeout   time.Duration
	RateLimit float64 // global requests per second, 0 = unlimited

	// HTTP
	FollowRedirects bool
	SkipProbe       bool
	NoTech          bool

	// Output
	OutputDir  string
	OutputName string
	Quiet      bool
	NoColor    bool
	Verbose    bool

	// Metrics
	MetricsAddr string

	// OnResultCmd is a shell command run for every 200/403 hit.
	OnResultCmd string

	ConfigFile string
}

// Default returns Options populated with default values.
func Default() Options {
	return Options{
		Threads:         DefaultThreads,
		Delay:           DefaultDelay,
		Timeout:         DefaultTimeout,
		FollowRedirects: true,
		OutputDir:       DefaultOutputDir,
		OutputName:      DefaultName,
	}
}

// Normalize validates the options and corrects values that have a safe
// fallback. It returns a human-readable note for every adjustment made.
func (o *Options) Normalize() (notes []string, err error) {
	if o.URL == "" {
		return nil, errors.New("target required: use -u")
	}
	if o.WordlistPath == "" {
		return nil, errors.New("wordlist required: use -w")
	}
	if o.Delay < 0 {
		return nil, errors.New("delay must be a positive number")
	}
	if o.Timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if o.RateLimit < 0 {
		return nil, errors.New("rate must not be negative")
	}

	switch {
	case o.Threads < 1:
		notes = append(notes, fmt.Sprintf("threads count must be at least 1, setting to %d", DefaultThreads))
		o.Threads = DefaultThreads
	case o.Threads > MaxThreads:
		notes = append(notes, fmt.Sprintf("threads count capped at %d", MaxThreads))
		o.Threads = MaxThreads
	}

	if strings.TrimSpace(o.OutputDir) == "" {
		o.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(o.OutputName) == "" {
		o.OutputName = DefaultName
	}
	if strings.ContainsAny(o.OutputName, `/\`) {
		return nil, fmt.Errorf("output name %q must not contain path separators", o.OutputName)
	}
	return notes, nil
}

// maxSeconds is the largest whole number of seconds a time.Duration holds.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// ParseSeconds parses a delay given either as (fractional) seconds, like
// "1" or "0.5", or as a Go duration such as "250ms".
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxSeconds {
			return 0, fmt.Errorf("invalid duration %q: out of range", s)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (e.g. 1.5) or a duration (e.g. 500ms)", s)
	}
	return d, nil
}

// fileOptions is the YAML layout of a config file. Pointers distinguish
// unset keys from zero values.
type fileOptions struct {
	URL             *string  `yaml:"url"`
	Wordlist        *string  `yaml:"wordlist"`
	Threads         *int     `yaml:"threads"`
	Delay           *string  `yaml:"delay"`
	Timeout         *string  `yaml:"timeout"`
	Rate            *float64 `yaml:"rate"`
	FollowRedirects *bool    `yaml:"follow_redirects"`
	SkipProbe       *bool    `yaml:"skip_probe"`
	NoTech          *bool    `yaml:"no_tech"`
	OutputDir       *string  `yaml:"output_dir"`
	Name            *string  `yaml:"name"`
	Quiet           *bool    `yaml:"quiet"`
	NoColor         *bool    `yaml:"no_color"`
	Verbose         *bool    `yaml:"verbose"`
	MetricsAddr     *string  `yaml:"metrics_addr"`
	OnResult        *string  `yaml:"on_result"`
}

// LoadFile merges the YAML config file at path into o. Keys for which
// explicit(flagName) returns true are skipped so command-line flags win.
func (o *Options) LoadFile(path string, explicit func(flagName string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var f fileOptions
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if explicit == nil {
		explicit = func(string) bool { return false }
	}
	setString(&o.URL, f.URL, explicit("url"))
	setString(&o.WordlistPath, f.Wordlist, explicit("wordlist"))
	setString(&o.OutputDir, f.OutputDir, explicit("output-dir"))
	setString(&o.OutputName, f.Name, explicit("name"))
	setString(&o.MetricsAddr, f.MetricsAddr, explicit("metrics-addr"))
	setString(&o.OnResultCmd, f.OnResult, explicit("on-result"))
	setBool(&o.FollowRedirects, f.FollowRedirects, explicit("follow-redirects"))
	setBool(&o.SkipProbe, f.SkipProbe, explicit("skip-probe"))
	setBool(&o.NoTech, f.NoTech, explicit("no-tech"))
	setBool(&o.Quiet, f.Quiet, explicit("quiet"))
	setBool(&o.NoColor, f.NoColor, explicit("no-color"))
	setBool(&o.Verbose, f.Verbose, explicit("verbose"))
	if f.Threads != nil && !explicit("threads") {
		o.Threads = *f.Threads
	}
	if f.Rate != nil && !explicit("rate") {
		o.RateLimit = *f.Rate
	}
	if f.Delay != nil && !explicit("delay") {
		d, err := ParseSeconds(*f.Delay)
		if err != nil {
			return fmt.Errorf("config delay: %w", err)
		}
		o.Delay = d
	}
	if f.Timeout != nil && !explicit("timeout") {
		d, err := ParseSeconds(*f.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		o.Timeout = d
	}
	return nil
}

func setString(dst *string, v *string, skip bool) {
	if v != nil && !skip {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool, skip bool) {
	if v != nil && !skip {
		*dst = *v
	}
}
