// Package ratelimit bounds the rate of calls to the external document
// provider with a sliding-window counter. Unlike a fixed-window reset, the
// trailing window never admits a burst above MaxRequests at a boundary
// crossing.
package ratelimit

import (
	"sync"
	"time"
)

// SafetyMargin is added to every computed delay to absorb clock and
// scheduler jitter between the wait and the actual provider call.
const SafetyMargin = 100 * time.Millisecond

// Config controls the window the provider enforces, e.g. 1 request/60s on
// the free tier or 15 requests/1s on a paid tier.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Enabled     bool
}

// SlidingWindow tracks the start times of recent provider calls. All state
// lives behind one mutex so two callers can never both conclude a slot is
// free.
type SlidingWindow struct {
	mu     sync.Mutex
	cfg    Config
	stamps []time.Time

	now func() time.Time
}

func New(cfg Config) *SlidingWindow {
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 1
	}
	if cfg.Window < time.Second {
		cfg.Window = time.Second
	}
	return &SlidingWindow{
		cfg:    cfg,
		stamps: make([]time.Time, 0, 2*cfg.MaxRequests),
		now:    time.Now,
	}
}

// Delay returns how long the caller must wait before starting the next
// provider call without breaching the window. Zero means a slot is free
// right now. Callers sleep outside the lock; the in-flight token in the
// gateway keeps them from racing past each other meanwhile.
func (l *SlidingWindow) Delay() time.Duration {
	if !l.cfg.Enabled {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.stamps) < l.cfg.MaxRequests {
		return 0
	}

	oldest := l.stamps[0]
	return oldest.Add(l.cfg.Window).Sub(now) + SafetyMargin
}

// Record marks a provider call as started now. The ledger is capped at
// twice MaxRequests; entries beyond that can never matter to the window
// check.
func (l *SlidingWindow) Record() {
	if !l.cfg.Enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stamps = append(l.stamps, l.now())
	if max := 2 * l.cfg.MaxRequests; len(l.stamps) > max {
		l.stamps = append(l.stamps[:0], l.stamps[len(l.stamps)-max:]...)
	}
}

// prune drops timestamps that fell out of the trailing window. Caller holds
// the lock.
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
