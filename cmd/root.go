package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/maxvaer/pathfuzz/internal/config"
	"github.com/maxvaer/pathfuzz/internal/runner"
	"github.com/maxvaer/pathfuzz/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var opts = config.Default()

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "wordlist"}},
	{"RATE-LIMIT", []string{"threads", "delay", "timeout", "rate"}},
	{"HTTP", []string{"follow-redirects", "skip-probe", "no-tech"}},
	{"OUTPUT", []string{"output-dir", "name", "quiet", "no-color", "verbose", "on-result"}},
	{"METRICS", []string{"metrics-addr"}},
	{"CONFIGURATION", []string{"config"}},
}

var rootCmd = &cobra.Command{
	Use:     "pathfuzz -u <url> -w <wordlist> [flags]",
	Short:   "Concurrent HTTP path fuzzer",
	Version: version.Version,
	Long: `pathfuzz requests <url>/<word> for every entry of a word list on a
bounded pool of workers, backs off when the server answers HTTP 429, and
appends every 200 and 403 hit to a per-status result file.`,
	Example: `  pathfuzz -u https://example.com -w words.txt
  pathfuzz -u example.com -w words.txt -t 20 --delay 0.5
  pathfuzz -u https://example.com -w words.txt -d ./loot -n example
  pathfuzz -u https://example.com -w words.txt --rate 5 --skip-probe
  pathfuzz -c pathfuzz.yaml --metrics-addr 127.0.0.1:9090`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		notes, err := prepareOptions(cmd.Flags(), &opts)
		if err != nil {
			if opts.URL == "" {
				_ = cmd.Help()
				fmt.Fprintln(os.Stderr)
			}
			return err
		}
		if !opts.Quiet {
			for _, n := range notes {
				fmt.Fprintf(os.Stderr, "[!] %s\n", n)
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Interrupts are handled by the session's canceller so that the
		// first one lets in-flight requests finish.
		return runner.Run(context.Background(), &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	registerFlags(rootCmd.Flags(), &opts)

	// Custom help: categorized flags like httpx.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

func registerFlags(f *pflag.FlagSet, o *config.Options) {
	// Target
	f.StringVarP(&o.URL, "url", "u", o.URL, "Target URL (http:// is assumed when no scheme is given)")
	f.StringVarP(&o.WordlistPath, "wordlist", "w", o.WordlistPath, "Word list, one entry per line")

	// Rate limit
	f.IntVarP(&o.Threads, "threads", "t", o.Threads, fmt.Sprintf("Concurrent requests (1-%d)", config.MaxThreads))
	f.Var(&secondsValue{target: &o.Delay}, "delay", "Pause per worker after each word, in seconds or as a duration")
	f.Var(&secondsValue{target: &o.Timeout}, "timeout", "HTTP request timeout, in seconds or as a duration")
	f.Float64Var(&o.RateLimit, "rate", o.RateLimit, "Global cap on requests per second (0 = off)")

	// HTTP
	f.BoolVar(&o.FollowRedirects, "follow-redirects", o.FollowRedirects, "Follow HTTP redirects")
	f.BoolVar(&o.SkipProbe, "skip-probe", o.SkipProbe, "Do not check that the target answers HTTP 200 first")
	f.BoolVar(&o.NoTech, "no-tech", o.NoTech, "Skip technology fingerprinting")

	// Output
	f.StringVarP(&o.OutputDir, "output-dir", "d", o.OutputDir, "Directory for result files")
	f.StringVarP(&o.OutputName, "name", "n", o.OutputName, "Prefix of the result file names")
	f.BoolVarP(&o.Quiet, "quiet", "q", o.Quiet, "Only print 200/403 hits and errors")
	f.BoolVar(&o.NoColor, "no-color", o.NoColor, "Disable colored output")
	f.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Log transport errors and debug details")
	f.StringVar(&o.OnResultCmd, "on-result", o.OnResultCmd, "Shell command run for each 200/403 hit (JSON on stdin, {url} {word} {status} {size} expanded)")

	// Metrics
	f.StringVar(&o.MetricsAddr, "metrics-addr", o.MetricsAddr, "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")

	// Configuration
	f.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "YAML config file; flags given on the command line win")
}

// prepareOptions merges the config file, if any, under the explicitly set
// flags and validates the result.
func prepareOptions(f *pflag.FlagSet, o *config.Options) ([]string, error) {
	if o.ConfigFile != "" {
		if err := o.LoadFile(o.ConfigFile, f.Changed); err != nil {
			return nil, err
		}
	}
	return o.Normalize()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// secondsValue implements pflag.Value for durations that may also be
// given as plain (fractional) seconds.
type secondsValue struct {
	target *time.Duration
}

func (v *secondsValue) String() string {
	if v.target == nil {
		return ""
	}
	return v.target.String()
}

func (v *secondsValue) Set(s string) error {
	d, err := config.ParseSeconds(s)
	if err != nil {
		return err
	}
	*v.target = d
	return nil
}

func (v *secondsValue) Type() string { return "seconds" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 30
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
    ___  ____ ___ _  _ ____ _  _ ___  ___
    |__] |__|  |  |__| |___ |  |   /    /
    |    |  |  |  |  | |    |__|  /__  /__  %s

`, ver)
}
