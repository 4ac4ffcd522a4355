package scanner

import (
	"context"
	"sync"
	"time"
)

// Pauser holds back the start of new items while the user has the
// session paused. A paused session is a closed door: workers queue at
// Wait until the gate channel is closed, items already running continue.
type Pauser struct {
	mu    sync.Mutex
	gate  chan struct{} // non-nil while paused
	since time.Time
	total time.Duration
}

// NewPauser creates an open gate.
func NewPauser() *Pauser {
	return &Pauser{}
}

// Wait returns once the session is running, or with ctx's error.
func (p *Pauser) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		gate := p.gate
		p.mu.Unlock()
		if gate == nil {
			return nil
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Toggle pauses a running session or resumes a paused one and reports
// whether the session is now paused.
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		p.open()
		return false
	}
	p.gate = make(chan struct{})
	p.since = time.Now()
	return true
}

// Resume opens the gate if it is closed. A stop request uses it so that
// paused workers can drain.
func (p *Pauser) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		p.open()
	}
}

// open releases every waiter and books the pause. p.mu must be held.
func (p *Pauser) open() {
	p.total += time.Since(p.since)
	close(p.gate)
	p.gate = nil
}

// PausedDuration is the time spent paused so far, counting a pause
// still in progress.
func (p *Pauser) PausedDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		return p.total + time.Since(p.since)
	}
	return p.total
}
