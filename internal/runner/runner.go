package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/maxvaer/pathfuzz/internal/config"
	"github.com/maxvaer/pathfuzz/internal/hook"
	"github.com/maxvaer/pathfuzz/internal/metrics"
	"github.com/maxvaer/pathfuzz/internal/output"
	"github.com/maxvaer/pathfuzz/internal/probe"
	"github.com/maxvaer/pathfuzz/internal/scanner"
	"github.com/maxvaer/pathfuzz/internal/wordlist"
	"github.com/maxvaer/pathfuzz/pkg/version"
)

// env holds the process resources a run touches.
type env struct {
	stderr io.Writer
	stdin  *os.File // nil disables the pause toggle
	exit   func(code int)
}

// Run executes one fuzzing session: probe the target, load the word list,
// prepare the output directory, then fuzz until the list is exhausted or
// the user interrupts.
func Run(ctx context.Context, opts *config.Options) error {
	return run(ctx, opts, env{stderr: os.Stderr, stdin: os.Stdin, exit: os.Exit})
}

func run(ctx context.Context, opts *config.Options, e env) error {
	console := output.NewConsole(e.stderr, opts.NoColor, opts.Quiet)
	logger := newLogger(console, opts.Verbose)

	console.Banner(banner())

	// 1. Resolve the base URL.
	base, err := resolveTarget(ctx, opts, console)
	if err != nil {
		return err
	}
	if !opts.NoTech {
		detectTechnologies(ctx, opts, base, console, logger)
	}

	// 2. Load wordlist.
	words, err := wordlist.Load(opts.WordlistPath)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}

	// 3. Output directory.
	created, files, err := output.PrepareDir(opts.OutputDir)
	if err != nil {
		return err
	}
	reportDir(console, opts.OutputDir, created, files)

	sink := output.NewSink(opts.OutputDir, opts.OutputName)
	agg := scanner.NewAggregator()
	pauser := scanner.NewPauser()

	// 4. Keyboard pause toggle and signals.
	restore := func() {}
	if e.stdin != nil {
		restore = startStdinToggle(e.stdin, pauser, console)
	}
	defer restore()

	cancel := scanner.NewCanceller(e.exit, func(s scanner.State) {
		switch s {
		case scanner.StopRequested:
			console.Errorf("[!] Ctrl+C pressed, stopping gracefully...")
			pauser.Resume()
		case scanner.ForceExit:
			console.Errorf("[!] Force exit...")
			restore()
		}
	})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()
	go cancel.Watch(sigCh)

	// 5. Optional metrics endpoint.
	if opts.MetricsAddr != "" {
		exp, err := metrics.NewExporter(agg, base, logger)
		if err != nil {
			return err
		}
		addr, err := exp.Serve(opts.MetricsAddr)
		if err != nil {
			return fmt.Errorf("starting metrics endpoint: %w", err)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = exp.Close(shutdownCtx)
		}()
		console.Noticef("[*] Metrics available at http://%s/metrics", addr)
	}

	// 6. Fuzz.
	onResult := console.Result
	if opts.OnResultCmd != "" {
		hooks := hook.NewRunner(opts.OnResultCmd, logger)
		onResult = func(res *scanner.Result) {
			console.Result(res)
			hooks.Run(res)
		}
	}
	engine := scanner.NewEngine(scanner.EngineConfig{
		Requester: scanner.NewRequester(scanner.RequesterConfig{
			Timeout:         opts.Timeout,
			Threads:         opts.Threads,
			FollowRedirects: opts.FollowRedirects,
		}),
		Aggregator: agg,
		Backoff:    scanner.NewBackoff(scanner.DefaultMaxRetries, scanner.DefaultBackoff, logger),
		Sink:       sink,
		OnResult:   onResult,
		Pauser:     pauser,
		RateLimit:  opts.RateLimit,
		Logger:     logger,
	})
	session := &scanner.Session{
		BaseURL:        base,
		Words:          words,
		Delay:          opts.Delay,
		MaxConcurrency: opts.Threads,
		OutputPrefix:   opts.OutputName,
		Cancel:         cancel,
	}

	console.Infof("[!] Starting fuzzing on %s with %d items", base, len(words))
	logger.Debug("session configured",
		slog.Int("threads", opts.Threads),
		slog.Duration("delay", opts.Delay),
		slog.Duration("timeout", opts.Timeout),
		slog.Float64("rate", opts.RateLimit))

	progress := output.NewProgress(agg, len(words), console, opts.Quiet)
	start := time.Now()
	progress.Start()
	runErr := engine.Run(ctx, session)
	progress.Stop()

	closeErr := sink.Close()

	console.WriteSummary(output.Summary{
		Counters:  agg.Snapshot(),
		Total:     len(words),
		Duration:  time.Since(start),
		Paused:    pauser.PausedDuration(),
		Cancelled: cancel.State() != scanner.Running,
	})
	reportResults(console, sink, agg.Snapshot())
	if runErr == nil && closeErr == nil {
		console.Infof("[!] Fuzzer stopped, exiting cleanly.")
	}
	return errors.Join(runErr, closeErr)
}

func newLogger(console *output.Console, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(slog.String("run", uuid.NewString()))
}

// resolveTarget returns the base URL to fuzz. Without the probe a missing
// scheme defaults to http.
func resolveTarget(ctx context.Context, opts *config.Options, console *output.Console) (string, error) {
	target := strings.TrimSpace(opts.URL)
	if opts.SkipProbe {
		if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
			target = "http://" + target
		}
		return target, nil
	}

	prober := probe.New(probe.DefaultTimeout, scanner.RandomUserAgent())
	attempts, rep, err := prober.Check(ctx, target)
	for _, a := range attempts {
		printAttempt(console, a)
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", target, err)
	}
	return rep.FinalURL, nil
}

func printAttempt(console *output.Console, a probe.Attempt) {
	rep := a.Report
	if rep != nil && rep.IP != "" {
		console.Infof("[URL CHECK] Scheme: %s | Host: %s | IP: %s | RDNS: %s", rep.Scheme, rep.Host, rep.IP, rep.RDNS)
		console.Infof("[URL CHECK] Full URL: %s", rep.URL)
	}
	if a.Err != nil {
		console.Errorf("[!] Connection failed: %v", a.Err)
		return
	}

	if len(rep.Chain) > 0 {
		console.Redirectf("[URL CHECK] Redirection chain:")
		for _, hop := range rep.Chain {
			console.Redirectf("\t%d | From: %s -> To: %s", hop.StatusCode, hop.From, hop.To)
		}
		console.Redirectf("\tFinal URL: %s", rep.FinalURL)
	}
	console.Noticef("[URL CHECK] Server Header: %s", rep.Server)
	console.Noticef("[URL CHECK] Content-Type: %s", rep.ContentType)
	console.Noticef("[URL CHECK] Content-Length: %s", rep.ContentLength)
	if rep.Reachable() {
		console.Successf("[URL CHECK] HTTP Status: 200 (reachable)")
	} else {
		console.Warnf("[URL CHECK] HTTP Status: %d (skipping)", rep.StatusCode)
	}
}

// detectTechnologies prints what the fingerprint database recognizes on
// the base page. Failures never stop the run.
func detectTechnologies(ctx context.Context, opts *config.Options, base string, console *output.Console, logger *slog.Logger) {
	console.Infof("[TECHNOLOGIES CHECK] Finding technologies")
	fp, err := probe.NewFingerprinter(opts.Timeout, scanner.RandomUserAgent())
	if err != nil {
		logger.Warn("technology detection unavailable", slog.Any("error", err))
		return
	}
	techs, err := fp.Detect(ctx, base)
	if err != nil {
		logger.Warn("technology detection failed", slog.String("url", base), slog.Any("error", err))
		return
	}
	if len(techs) == 0 {
		console.Infof("[TECHNOLOGIES CHECK] No technologies found.")
		return
	}
	console.Infof("[TECHNOLOGIES CHECK] Technologies found:")
	for _, t := range techs {
		console.Infof("\t- %s", t)
	}
}

// reportResults names the result files that received lines this session.
func reportResults(console *output.Console, sink *output.Sink, c scanner.Counters) {
	for _, hit := range []struct {
		class scanner.Classification
		n     int64
	}{{scanner.Found, c.Found}, {scanner.Forbidden, c.Forbidden}} {
		if hit.n > 0 {
			console.Noticef("[*] %d result(s) appended to %s", hit.n, sink.Path(hit.class))
		}
	}
}

func reportDir(console *output.Console, dir string, created bool, files []string) {
	if created {
		console.Noticef("Directory '%s' does not exist. Created it.", dir)
		return
	}
	console.Noticef("Files in directory %s:", dir)
	if len(files) == 0 {
		console.Noticef("  No files found in directory %s", dir)
		return
	}
	for _, f := range files {
		console.Noticef("  - %s", f)
	}
}

func banner() string {
	return fmt.Sprintf(`
    ___  ____ ___ _  _ ____ _  _ ___  ___
    |__] |__|  |  |__| |___ |  |   /    /
    |    |  |  |  |  | |    |__|  /__  /__  v%s

    Concurrent HTTP path fuzzer
    Enter/Space: pause | Ctrl+C: stop | Ctrl+C twice: force exit
`, version.Version)
}
