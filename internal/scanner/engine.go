package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// MaxConcurrency is the upper bound on simultaneous requests.
const MaxConcurrency = 50

// Session is one fuzzing run over a word list. Cancel is the only part
// that changes after construction.
type Session struct {
	BaseURL        string
	Words          []string
	Delay          time.Duration
	MaxConcurrency int
	OutputPrefix   string
	Cancel         *Canceller
}

// Recorder persists terminal results. An error from Record is fatal to the run.
type Recorder interface {
	Record(res *Result) error
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Requester  *Requester
	Aggregator *Aggregator
	Backoff    *Backoff
	Sink       Recorder      // receives Found and Forbidden results; nil = discard
	OnResult   func(*Result) // called for every terminal result; may be nil
	Pauser     *Pauser       // nil = no pause support
	RateLimit  float64       // global requests per second, 0 = unlimited
	Logger     *slog.Logger
}

// Engine runs sessions on a bounded worker pool.
type Engine struct {
	req      *Requester
	agg      *Aggregator
	backoff  *Backoff
	sink     Recorder
	onResult func(*Result)
	pauser   *Pauser
	rate     float64
	log      *slog.Logger
}

// NewEngine creates an engine, filling in defaults for unset collaborators.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		req:      cfg.Requester,
		agg:      cfg.Aggregator,
		backoff:  cfg.Backoff,
		sink:     cfg.Sink,
		onResult: cfg.OnResult,
		pauser:   cfg.Pauser,
		rate:     cfg.RateLimit,
		log:      cfg.Logger,
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.req == nil {
		e.req = NewRequester(RequesterConfig{})
	}
	if e.agg == nil {
		e.agg = NewAggregator()
	}
	if e.backoff == nil {
		e.backoff = NewBackoff(DefaultMaxRetries, DefaultBackoff, e.log)
	}
	return e
}

// Aggregator returns the counters the engine updates.
func (e *Engine) Aggregator() *Aggregator {
	return e.agg
}

type run struct {
	*Engine
	session *Session
	pacer   *Pacer

	failOnce sync.Once
	failed   atomic.Bool
	err      error
}

func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.err = err
		r.failed.Store(true)
	})
}

// halted reports whether no further items may start.
func (r *run) halted(ctx context.Context) bool {
	return r.session.Cancel.Stopped() || r.failed.Load() || ctx.Err() != nil
}

// Run dispatches every word of the session to the pool and blocks until
// all started items reach a terminal classification. After a stop request
// no new item starts, and the words never started are not counted. ctx
// bounds in-flight requests and sleeps; a graceful stop does not cancel it.
func (e *Engine) Run(ctx context.Context, s *Session) error {
	if s.MaxConcurrency < 1 || s.MaxConcurrency > MaxConcurrency {
		return fmt.Errorf("max concurrency %d out of range [1,%d]", s.MaxConcurrency, MaxConcurrency)
	}
	if s.Cancel == nil {
		s.Cancel = NewCanceller(nil, nil)
	}

	r := &run{
		Engine:  e,
		session: s,
		pacer:   NewPacer(s.Delay, e.rate),
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(s.MaxConcurrency, func(arg interface{}) {
		defer wg.Done()
		r.work(ctx, arg.(WorkItem))
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	for _, word := range s.Words {
		if r.halted(ctx) {
			break
		}
		wg.Add(1)
		// Invoke blocks until one of the MaxConcurrency slots is free.
		if err := pool.Invoke(WorkItem{BaseURL: s.BaseURL, Word: word}); err != nil {
			wg.Done()
			r.fail(fmt.Errorf("dispatching %q: %w", word, err))
			break
		}
	}
	wg.Wait()

	if r.err != nil {
		return r.err
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// work processes one item in its pool slot: request (with retries),
// classify, persist, count, then rest for the per-worker delay.
func (r *run) work(ctx context.Context, item WorkItem) {
	if r.pauser != nil {
		if err := r.pauser.Wait(ctx); err != nil {
			return
		}
	}
	if r.halted(ctx) {
		return
	}
	r.agg.MarkDispatched()

	res := r.process(ctx, item)

	if r.onResult != nil {
		r.onResult(&res)
	}
	if r.sink != nil && (res.Class == Found || res.Class == Forbidden) {
		if err := r.sink.Record(&res); err != nil {
			r.fail(fmt.Errorf("writing result for %s: %w", res.URL, err))
		}
	}
	r.agg.Increment(res.Class)

	r.pacer.Rest(ctx)
}

// process runs the request path for one item. Panics are contained here so
// a single bad item is counted as Other instead of killing the pool.
func (r *run) process(ctx context.Context, item WorkItem) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("unexpected failure while processing item",
				slog.String("url", item.URL()),
				slog.Any("panic", p))
			res = Result{
				Word:     item.Word,
				URL:      item.URL(),
				Class:    Other,
				Attempts: item.Attempt + 1,
				Error:    fmt.Errorf("panic: %v", p),
			}
		}
		res.Duration = time.Since(start)
	}()

	return r.backoff.Do(ctx, item, func(it WorkItem) Result {
		return r.fetch(ctx, it)
	})
}

func (r *run) fetch(ctx context.Context, item WorkItem) Result {
	target := item.URL()
	res := Result{Word: item.Word, URL: target, Class: Other}

	if err := r.pacer.Acquire(ctx); err != nil {
		res.Error = err
		return res
	}

	resp, err := r.req.Get(ctx, target)
	if err != nil {
		r.log.Debug("request failed", slog.String("url", target), slog.Any("error", err))
		res.Error = err
		return res
	}

	res.StatusCode = resp.StatusCode
	res.ContentLength = resp.ContentLength
	res.Class = Classify(resp.StatusCode)
	return res
}
