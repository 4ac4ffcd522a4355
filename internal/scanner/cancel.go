package scanner

import (
	"os"
	"sync"
)

// State is the cancellation state of a session.
type State int

const (
	Running State = iota
	StopRequested
	ForceExit
)

func (s State) String() string {
	switch s {
	case StopRequested:
		return "stop-requested"
	case ForceExit:
		return "force-exit"
	default:
		return "running"
	}
}

// Canceller is the session's cancellation token. The first interrupt
// requests a graceful stop (no new items start, in-flight items finish);
// the second one terminates the process through the exit function.
// Transitions only move forward.
type Canceller struct {
	mu     sync.Mutex
	state  State
	stop   chan struct{}
	exit   func(code int)
	notify func(State)
}

// NewCanceller creates a token in the Running state. exit defaults to
// os.Exit. notify, if set, is called once on entering each new state,
// before exit runs.
func NewCanceller(exit func(code int), notify func(State)) *Canceller {
	if exit == nil {
		exit = os.Exit
	}
	return &Canceller{
		stop:   make(chan struct{}),
		exit:   exit,
		notify: notify,
	}
}

// Interrupt advances the state machine by one step and returns the new state.
// Calls made in ForceExit are no-ops.
func (c *Canceller) Interrupt() State {
	c.mu.Lock()
	changed := true
	switch c.state {
	case Running:
		c.state = StopRequested
		close(c.stop)
	case StopRequested:
		c.state = ForceExit
	default:
		changed = false
	}
	s := c.state
	c.mu.Unlock()

	if !changed {
		return s
	}
	if c.notify != nil {
		c.notify(s)
	}
	if s == ForceExit {
		c.exit(1)
	}
	return s
}

// Watch feeds every received signal into Interrupt until ch is closed.
func (c *Canceller) Watch(ch <-chan os.Signal) {
	for range ch {
		c.Interrupt()
	}
}

// Stopped reports whether a stop has been requested.
func (c *Canceller) Stopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// State returns the current state.
func (c *Canceller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
