package persistence

import (
	"context"
	"sync"

	"github.com/BaSui01/swarmflow/types"
)

// MemoryEventStore keeps event trails in process memory. Suitable for
// development and testing; data is lost on restart.
type MemoryEventStore struct {
	mu     sync.RWMutex
	trails map[string][]types.Event
	closed bool
}

// NewMemoryEventStore creates an empty in-memory store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{trails: make(map[string][]types.Event)}
}

// Append implements EventStore.
func (s *MemoryEventStore) Append(_ context.Context, ev types.Event) error {
	if ev.RequestID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.trails[ev.RequestID] = append(s.trails[ev.RequestID], ev)
	return nil
}

// List implements EventStore.
func (s *MemoryEventStore) List(_ context.Context, requestID string) ([]types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	trail, ok := s.trails[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]types.Event, len(trail))
	copy(out, trail)
	return out, nil
}

// Ping implements EventStore.
func (s *MemoryEventStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close implements EventStore.
func (s *MemoryEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
