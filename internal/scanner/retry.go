package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultMaxRetries is the number of resubmissions allowed for a
	// rate-limited item (so at most DefaultMaxRetries+1 requests).
	DefaultMaxRetries = 3
	// DefaultBackoff is the fixed wait before a rate-limited item is retried.
	DefaultBackoff = 30 * time.Second
)

// sleeper waits for d or until ctx is done. Tests swap it out.
type sleeper func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff handles HTTP 429 responses for a single item: it waits a fixed
// delay and resubmits the same item, up to MaxRetries times. It never
// slows down other items.
type Backoff struct {
	MaxRetries int
	Delay      time.Duration

	logger *slog.Logger
	sleep  sleeper
}

// NewBackoff creates a retry controller. A nil logger discards log output.
func NewBackoff(maxRetries int, delay time.Duration, logger *slog.Logger) *Backoff {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backoff{
		MaxRetries: maxRetries,
		Delay:      delay,
		logger:     logger,
		sleep:      realSleep,
	}
}

// Do calls fetch for item until it yields something other than
// RateLimited. When the retry budget is exhausted the item is classified
// as Other. The returned Result carries the total number of attempts.
func (b *Backoff) Do(ctx context.Context, item WorkItem, fetch func(WorkItem) Result) Result {
	for {
		res := fetch(item)
		res.Attempts = item.Attempt + 1
		if res.Class != RateLimited {
			return res
		}

		if item.Attempt >= b.MaxRetries {
			b.logger.Warn("max retries reached, skipping",
				slog.String("url", res.URL),
				slog.Int("attempts", res.Attempts))
			res.Class = Other
			return res
		}

		b.logger.Warn("HTTP 429, sleeping before retry (consider switching IP)",
			slog.String("url", res.URL),
			slog.Duration("sleep", b.Delay),
			slog.String("retry", fmt.Sprintf("%d/%d", item.Attempt+1, b.MaxRetries)))
		if err := b.sleep(ctx, b.Delay); err != nil {
			res.Class = Other
			res.Error = err
			return res
		}
		item.Attempt++
	}
}
