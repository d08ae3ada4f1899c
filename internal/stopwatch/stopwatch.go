// Package stopwatch provides pause-aware elapsed-time tracking and the
// periodic signals driving the capture display.
//
// The Stopwatch is pure logic: it remembers only accumulated elapsed time
// plus the instant it was last started, so elapsed survives pause/resume
// without holding the original wall-clock start.
package stopwatch

import (
	"sync"
	"time"
)

// Clock abstracts time.Now for tests.
type Clock func() time.Time

// Stopwatch accumulates elapsed time across pause/resume cycles.
// The zero value is a stopped stopwatch at zero elapsed. Safe for
// concurrent use: the driver goroutine reads Elapsed while the owning
// session starts and pauses it.
type Stopwatch struct {
	mu           sync.Mutex
	now          Clock
	accumulated  time.Duration
	runningSince time.Time
	running      bool
}

// New returns a stopped stopwatch. A nil clock defaults to time.Now.
func New(clock Clock) *Stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return &Stopwatch{now: clock}
}

// Start begins (or resumes) accumulation. Starting a running stopwatch is
// a no-op.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.runningSince = s.now()
	s.running = true
}

// Pause freezes the elapsed value. Pausing a stopped stopwatch is a no-op.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.accumulated += s.now().Sub(s.runningSince)
	s.running = false
}

// Reset returns the stopwatch to zero and stops it.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accumulated = 0
	s.running = false
}

// Running reports whether time is currently accumulating.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Elapsed returns the total accumulated duration. Monotonically
// non-decreasing while running, frozen while paused, zero only after Reset.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.accumulated + s.now().Sub(s.runningSince)
	}
	return s.accumulated
}
