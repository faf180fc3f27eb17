package upload

import "sync"

// ProgressEvent is one observable phase transition or progress tick for an
// item, identified by its index in the batch.
type ProgressEvent struct {
	Index   int
	Status  Status
	Percent int
	Message string
}

// ItemProgress is the last observed state of one item.
type ItemProgress struct {
	Status  Status
	Percent int
	Message string
}

// ProgressStore holds per-item observable state. It is written only by the
// coordinator's phase transitions and read by any number of subscribers.
// Since processing is strictly sequential, writes never interleave across
// items; last write wins per index.
type ProgressStore struct {
	mu     sync.Mutex
	snaps  []ItemProgress
	events chan ProgressEvent
}

func newProgressStore(n int) *ProgressStore {
	return &ProgressStore{
		snaps: make([]ItemProgress, n),
		// room for every phase transition plus progress ticks
		events: make(chan ProgressEvent, 16+128*n),
	}
}

func (s *ProgressStore) set(i int, st Status, pct int, msg string) {
	s.mu.Lock()
	s.snaps[i] = ItemProgress{Status: st, Percent: pct, Message: msg}
	s.mu.Unlock()

	// never block the pipeline on a slow subscriber
	select {
	case s.events <- ProgressEvent{Index: i, Status: st, Percent: pct, Message: msg}:
	default:
	}
}

// Item returns the last observed state of the item at index i.
func (s *ProgressStore) Item(i int) ItemProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snaps[i]
}

// Snapshot returns a copy of the per-item states.
func (s *ProgressStore) Snapshot() []ItemProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := make([]ItemProgress, len(s.snaps))
	copy(snaps, s.snaps)
	return snaps
}

// Events exposes the buffered event stream. Events are dropped rather than
// blocking once the buffer fills; Snapshot remains authoritative.
func (s *ProgressStore) Events() <-chan ProgressEvent {
	return s.events
}
