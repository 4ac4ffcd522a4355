package output

import (
	"time"

	"github.com/maxvaer/pathfuzz/internal/scanner"
)

// Summary holds the end-of-run statistics.
type Summary struct {
	Counters  scanner.Counters
	Total     int
	Duration  time.Duration
	Paused    time.Duration
	Cancelled bool
}

// RequestsPerSec is the completion rate over the active (unpaused) time.
func (s Summary) RequestsPerSec() float64 {
	active := (s.Duration - s.Paused).Seconds()
	if active <= 0 {
		return 0
	}
	return float64(s.Counters.Completed) / active
}

// WriteSummary prints the final summary line.
func (c *Console) WriteSummary(s Summary) {
	state := "completed"
	if s.Cancelled {
		state = "stopped"
	}
	c.Printf("[!] Fuzzing %s: %d/%d words (dispatched %d) | 200: %d | 403: %d | Others: %d | Duration: %s | %.1f req/s",
		state,
		s.Counters.Completed, s.Total, s.Counters.Dispatched,
		s.Counters.Found, s.Counters.Forbidden, s.Counters.Other,
		s.Duration.Round(time.Millisecond),
		s.RequestsPerSec(),
	)
}
