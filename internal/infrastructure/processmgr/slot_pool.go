package processmgr

import "sync"

// SlotPool is a fixed-capacity semaphore with explicit ownership. Each
// acquisition is tagged with the caller's identifier (a request ID) so that
// the holders of a saturated pool can be listed.
type SlotPool struct {
	mu         sync.Mutex
	maxCap     int
	acquiredBy map[string]struct{} // active ownership table
}

// NewSlotPool initializes the pool with a given capacity.
// Negative values are clamped to zero.
func NewSlotPool(max int) *SlotPool {
	if max < 0 {
		max = 0
	}
	return &SlotPool{
		maxCap:     max,
		acquiredBy: make(map[string]struct{}),
	}
}

// TryAcquire takes a slot for id without blocking. It fails when the pool is
// full or id already holds a slot.
func (s *SlotPool) TryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[id]; holds {
		return false
	}
	if len(s.acquiredBy) >= s.maxCap {
		return false
	}

	s.acquiredBy[id] = struct{}{}
	return true
}

// Release frees the slot owned by id.
// Releasing an id that does not own a slot is an invariant violation.
func (s *SlotPool) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[id]; !holds {
		panic("SlotPool: release for non-owner id")
	}
	delete(s.acquiredBy, id)
}

// Holders returns a snapshot of all current owners.
func (s *SlotPool) Holders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.acquiredBy))
	for id := range s.acquiredBy {
		out = append(out, id)
	}
	return out
}

// Capacity returns the configured concurrency limit.
func (s *SlotPool) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxCap
}

// Current returns the number of slots in use.
func (s *SlotPool) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.acquiredBy)
}
