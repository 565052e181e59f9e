package overrides

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	set  Set
	meta Meta
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (Set, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return record.set.Clone(), record.meta, true, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, set Set, meta Meta) (Meta, error) {
	s.mu.Lock()
	s.records[userID] = memoryRecord{set: set.Clone(), meta: meta}
	s.mu.Unlock()
	return meta, nil
}
