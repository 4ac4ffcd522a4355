// Package metrics exposes session counters for Prometheus scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/maxvaer/pathfuzz/internal/scanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshotter is the read-only view of the session counters.
type Snapshotter interface {
	Snapshot() scanner.Counters
}

// Exporter publishes counters read from a Snapshotter at scrape time, so
// the numbers always satisfy the same invariants as the Aggregator.
type Exporter struct {
	registry *prometheus.Registry
	server   *http.Server
	logger   *slog.Logger
}

// NewExporter registers the pathfuzz metrics on a private registry.
func NewExporter(src Snapshotter, target string, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"target": target}

	counter := func(name, help string, extra prometheus.Labels, get func(scanner.Counters) int64) prometheus.Collector {
		constLabels := prometheus.Labels{}
		for k, v := range labels {
			constLabels[k] = v
		}
		for k, v := range extra {
			constLabels[k] = v
		}
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, func() float64 { return float64(get(src.Snapshot())) })
	}

	collectors := []prometheus.Collector{
		counter("pathfuzz_words_dispatched_total", "Words a worker started processing.", nil,
			func(c scanner.Counters) int64 { return c.Dispatched }),
		counter("pathfuzz_words_completed_total", "Words that reached a terminal classification.", nil,
			func(c scanner.Counters) int64 { return c.Completed }),
		counter("pathfuzz_results_total", "Terminal results by classification.", prometheus.Labels{"class": scanner.Found.String()},
			func(c scanner.Counters) int64 { return c.Found }),
		counter("pathfuzz_results_total", "Terminal results by classification.", prometheus.Labels{"class": scanner.Forbidden.String()},
			func(c scanner.Counters) int64 { return c.Forbidden }),
		counter("pathfuzz_results_total", "Terminal results by classification.", prometheus.Labels{"class": scanner.Other.String()},
			func(c scanner.Counters) int64 { return c.Other }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pathfuzz_words_in_flight",
			Help:        "Words started but not yet completed.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Snapshot().InFlight()) }),
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return &Exporter{registry: registry, logger: logger}, nil
}

// Handler returns the HTTP handler serving the metrics.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics endpoint on addr at /metrics. It returns the
// bound address once listening.
func (e *Exporter) Serve(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Close stops the metrics endpoint.
func (e *Exporter) Close(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
