package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"crucible-hq/crucible/pkg/audit"
)

// MemoryStore implements audit.Store in process memory. Events are kept in
// encoded form so that callers can never mutate a stored event.
// Intended for tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	events [][]byte
	clock  *sequenceClock
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clock: newSequenceClock(nil)}
}

// NewMemoryStoreWithClock creates an empty in-memory store whose creation
// times come from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{clock: newSequenceClock(now)}
}

// Append implements audit.Store.
func (s *MemoryStore) Append(ctx context.Context, ev *audit.Event) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, audit.NewStorageError("memory", "append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, audit.NewStorageError("memory", "append", errStoreClosed)
	}

	stored := *ev
	stored.ID = int64(len(s.events)) + 1
	stored.CreatedAt = s.clock.next()

	data, err := json.Marshal(&stored)
	if err != nil {
		return 0, audit.NewStorageError("memory", "encode", err)
	}

	s.events = append(s.events, data)
	s.clock.commit(stored.CreatedAt)

	ev.ID = stored.ID
	ev.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// List implements audit.Store.
func (s *MemoryStore) List(ctx context.Context, filter *audit.Filter) (<-chan *audit.Event, <-chan error, error) {
	if err := filter.Validate(); err != nil {
		return nil, nil, audit.NewQueryError(filter, err)
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, audit.NewStorageError("memory", "list", errStoreClosed)
	}
	snapshot := s.events[:len(s.events):len(s.events)]
	s.mu.RUnlock()

	eventsCh := make(chan *audit.Event, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventsCh)
		defer close(errCh)

		sent := 0
		for _, data := range snapshot {
			ev := &audit.Event{}
			if err := json.Unmarshal(data, ev); err != nil {
				errCh <- audit.NewStorageError("memory", "decode", err)
				return
			}
			if !filter.Matches(ev) {
				continue
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case eventsCh <- ev:
			}

			sent++
			if filter != nil && filter.Limit > 0 && sent >= filter.Limit {
				return
			}
		}
	}()

	return eventsCh, errCh, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close marks the store closed. Stored events are discarded.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.events = nil
	return nil
}
