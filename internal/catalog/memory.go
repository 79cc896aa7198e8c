package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, record Record) (Record, error) {
	if record.Identifier == "" {
		return Record{}, fmt.Errorf("record identifier is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.Identifier]; ok {
		record.ID = existing.ID
	}
	if record.ID == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	s.records[record.Identifier] = record
	return record, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, identifier string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[strings.ToUpper(identifier)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
