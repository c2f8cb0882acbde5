package meter

import (
	"context"
	"sync"
)

// MemoryStorage implements Storage with in-memory append-only slices.
// A single mutex serializes appends, which trivially satisfies the
// per-stream race-freedom contract. Intended for tests and single-process
// setups.
type MemoryStorage struct {
	mu      sync.RWMutex
	streams map[string][]UsageEvent
}

// NewMemoryStorage returns an empty in-memory ledger.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		streams: make(map[string][]UsageEvent),
	}
}

// FindLatest returns the most recent event for the stream, optionally
// filtered by event tag.
func (s *MemoryStorage) FindLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.streams[StreamKey(referenceID, featureKey)]
	for i := len(events) - 1; i >= 0; i-- {
		if eventFilter == "" || events[i].Event == eventFilter {
			ev := events[i]
			return &ev, nil
		}
	}
	return nil, nil
}

// Append materializes the draft against the stream's latest row under the
// write lock and appends it.
func (s *MemoryStorage) Append(ctx context.Context, draft EventDraft) (*UsageEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := StreamKey(draft.ReferenceID, draft.FeatureKey)
	events := s.streams[key]

	var latest *UsageEvent
	if len(events) > 0 {
		latest = &events[len(events)-1]
	}

	ev := draft.materialize(latest)
	s.streams[key] = append(events, ev)
	return &ev, nil
}

// Len reports the number of events recorded for a stream.
func (s *MemoryStorage) Len(referenceID, featureKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams[StreamKey(referenceID, featureKey)])
}

// Events returns a copy of the stream's events in append order.
func (s *MemoryStorage) Events(referenceID, featureKey string) []UsageEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.streams[StreamKey(referenceID, featureKey)]
	out := make([]UsageEvent, len(events))
	copy(out, events)
	return out
}
