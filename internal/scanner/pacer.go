package scanner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests. Each worker rests for a fixed delay after
// finishing an item, and an optional limiter caps the requests per second
// issued by the whole pool. Neither adapts to server responses.
type Pacer struct {
	delay   time.Duration
	limiter *rate.Limiter // nil = no global cap
}

// NewPacer creates a pacer. perSecond <= 0 disables the global cap.
func NewPacer(delay time.Duration, perSecond float64) *Pacer {
	p := &Pacer{delay: delay}
	if perSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return p
}

// Acquire blocks until the global cap admits one more request.
func (p *Pacer) Acquire(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Rest sleeps for the per-worker delay. A graceful stop does not cut it
// short; only ctx does.
func (p *Pacer) Rest(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	_ = realSleep(ctx, p.delay)
}
