package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maxvaer/pathfuzz/internal/scanner"
)

const (
	// ProgressInterval is how often the progress line is redrawn.
	ProgressInterval = 200 * time.Millisecond
	barWidth         = 30
)

// Snapshotter is the read-only view of the session counters.
type Snapshotter interface {
	Snapshot() scanner.Counters
}

// Progress redraws a single-line progress summary until every word has
// completed or Stop is called. It never mutates the counters it reads.
type Progress struct {
	src      Snapshotter
	total    int64
	console  *Console
	interval time.Duration
	start    time.Time
	quiet    bool

	stopOnce sync.Once
	done     chan struct{}
	finished chan struct{}
}

// NewProgress creates a reporter for a session of total words.
func NewProgress(src Snapshotter, total int, console *Console, quiet bool) *Progress {
	return &Progress{
		src:      src,
		total:    int64(total),
		console:  console,
		interval: ProgressInterval,
		quiet:    quiet,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start launches the reporter goroutine.
func (p *Progress) Start() {
	p.start = time.Now()
	if p.quiet {
		close(p.finished)
		return
	}
	go p.loop()
}

func (p *Progress) loop() {
	defer close(p.finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := p.src.Snapshot()
			if snap.Completed >= p.total {
				p.console.Finish(p.line(snap))
				return
			}
			// Redrawing in place only makes sense on a terminal.
			if p.console.Interactive() {
				p.console.Render(p.line(snap))
			}
		case <-p.done:
			p.console.Finish(p.line(p.src.Snapshot()))
			return
		}
	}
}

// Stop ends the reporter and waits for its final render.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	<-p.finished
}

func (p *Progress) line(c scanner.Counters) string {
	rate := float64(0)
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(c.Completed) / elapsed
	}
	return FormatProgress(c, p.total) + fmt.Sprintf(" | %.0f req/s", rate)
}

// FormatProgress renders the bar and per-classification counts. The bar is
// proportional to completed/total.
func FormatProgress(c scanner.Counters, total int64) string {
	ratio := float64(1)
	if total > 0 {
		ratio = float64(c.Completed) / float64(total)
	}
	ratio = min(max(ratio, 0), 1)
	filled := int(barWidth * ratio)
	bar := strings.Repeat("█", filled) + strings.Repeat("-", barWidth-filled)

	return fmt.Sprintf("[Progress] |%s| %d%% | (%d/%d) - [URLs Found] 200: %d | 403: %d | Others: %d | In-flight: %d",
		bar, int(ratio*100), c.Completed, total, c.Found, c.Forbidden, c.Other, c.InFlight())
}
