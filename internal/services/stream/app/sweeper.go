package stream

import (
	"sync"
	"time"
)

const (
	// sessionTimeout is how long a session may stay idle before its buffer
	// and connection set are reclaimed. Memory reclamation only: a swept
	// session can reappear later, just without replay history.
	sessionTimeout = time.Hour

	// sweepMinInterval rate-limits opportunistic sweeps from request paths.
	sweepMinInterval = time.Minute
)

// sweeper gates retention sweeps. There is no background timer; the request
// paths that are already running call maybeSweep as they go.
type sweeper struct {
	mu       sync.Mutex
	interval time.Duration
	timeout  time.Duration
	lastRun  time.Time
}

func newSweeper(interval, timeout time.Duration) *sweeper {
	if interval <= 0 {
		interval = sweepMinInterval
	}
	if timeout <= 0 {
		timeout = sessionTimeout
	}
	return &sweeper{interval: interval, timeout: timeout}
}

// maybeSweep runs fn with the eviction cutoff, at most once per interval.
func (s *sweeper) maybeSweep(now time.Time, fn func(cutoff time.Time)) {
	s.mu.Lock()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.interval {
		s.mu.Unlock()
		return
	}
	s.lastRun = now
	s.mu.Unlock()

	fn(now.Add(-s.timeout))
}
