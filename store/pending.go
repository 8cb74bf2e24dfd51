package store

import (
	"sync"
	"time"

	"clipgate/internal"
)

// PendingStore holds deferred work for subscribers who were denied by the
// gate, keyed by subscriber id with one slot each. Entries expire after a
// TTL; expiry is lazy, applied on read.
type PendingStore struct {
	mu    sync.Mutex
	items map[int64]internal.PendingWorkItem
	ttl   time.Duration
	now   func() time.Time
}

// NewPendingStore creates a store with the given TTL. The now function is
// injectable for tests; nil means time.Now.
func NewPendingStore(ttl time.Duration, now func() time.Time) *PendingStore {
	if now == nil {
		now = time.Now
	}
	return &PendingStore{
		items: make(map[int64]internal.PendingWorkItem),
		ttl:   ttl,
		now:   now,
	}
}

// Save stores the subscriber's deferred reference, overwriting any existing
// slot. CreatedAt is stamped here.
func (s *PendingStore) Save(subscriberID int64, ref internal.MediaReference) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[subscriberID] = internal.PendingWorkItem{
		SubscriberID: subscriberID,
		Reference:    ref,
		CreatedAt:    s.now(),
	}
}

// Get returns the subscriber's pending item if one exists and is still
// fresh. An aged-out entry is removed as a side effect and reported absent.
func (s *PendingStore) Get(subscriberID int64) (internal.PendingWorkItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[subscriberID]
	if !ok {
		return internal.PendingWorkItem{}, false
	}
	if s.now().Sub(item.CreatedAt) > s.ttl {
		delete(s.items, subscriberID)
		return internal.PendingWorkItem{}, false
	}
	return item, true
}

// Take returns and removes the subscriber's pending item in one step, so
// two concurrent compliance confirmations cannot both resume the same work.
// TTL expiry applies as in Get.
func (s *PendingStore) Take(subscriberID int64) (internal.PendingWorkItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[subscriberID]
	if !ok {
		return internal.PendingWorkItem{}, false
	}
	delete(s.items, subscriberID)
	if s.now().Sub(item.CreatedAt) > s.ttl {
		return internal.PendingWorkItem{}, false
	}
	return item, true
}

// Clear removes the subscriber's pending item if present.
func (s *PendingStore) Clear(subscriberID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, subscriberID)
}
