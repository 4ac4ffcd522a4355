package scanner

import "sync"

// Counters is a point-in-time copy of the session counters.
// Found + Forbidden + Other always equals Completed, and Completed never
// exceeds Dispatched.
type Counters struct {
	Dispatched int64
	Completed  int64
	Found      int64
	Forbidden  int64
	Other      int64
}

// InFlight returns the number of started items that have not yet completed.
func (c Counters) InFlight() int64 {
	return c.Dispatched - c.Completed
}

// Aggregator owns the session counters. Every mutation happens under a
// single lock so observers never see a half-applied update.
type Aggregator struct {
	mu sync.Mutex
	c  Counters
}

// NewAggregator returns an Aggregator with all counters at zero.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// MarkDispatched records that a worker has started processing an item.
func (a *Aggregator) MarkDispatched() {
	a.mu.Lock()
	a.c.Dispatched++
	a.mu.Unlock()
}

// Increment records a terminal outcome: Completed and the matching
// classification counter advance together. RateLimited is not terminal and
// is counted as Other.
func (a *Aggregator) Increment(kind Classification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.c.Completed++
	switch kind {
	case Found:
		a.c.Found++
	case Forbidden:
		a.c.Forbidden++
	default:
		a.c.Other++
	}
}

// Snapshot returns a consistent copy of the counters.
func (a *Aggregator) Snapshot() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.c
}
