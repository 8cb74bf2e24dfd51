package store

import "sync"

// SeenEvents is a bounded set of processed inbound event ids used to
// suppress duplicate deliveries. When the set reaches capacity it resets
// wholesale instead of evicting precisely; a very old id reprocessed after a
// reset is an accepted trade against per-entry bookkeeping.
type SeenEvents struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	capacity int
}

// NewSeenEvents creates a guard that resets after capacity distinct ids.
func NewSeenEvents(capacity int) *SeenEvents {
	if capacity < 1 {
		capacity = 1000
	}
	return &SeenEvents{
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// CheckAndMark reports whether eventID was already seen, marking it seen
// either way.
func (s *SeenEvents) CheckAndMark(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, duplicate := s.ids[eventID]; duplicate {
		return true
	}

	if len(s.ids) >= s.capacity {
		s.ids = make(map[string]struct{}, s.capacity)
	}
	s.ids[eventID] = struct{}{}
	return false
}

// Len returns the current number of tracked ids.
func (s *SeenEvents) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
