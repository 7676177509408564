package carrierconfig

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process CredentialStore for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]CarrierRecord
}

// NewMemoryStore creates a MemoryStore seeded with records.
func NewMemoryStore(records ...CarrierRecord) *MemoryStore {
	s := &MemoryStore{records: make(map[string]CarrierRecord)}
	for _, r := range records {
		s.Put(r)
	}
	return s
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(r CarrierRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
}

// FindByID implements CredentialStore.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*CarrierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &r, nil
}

// FindByName implements CredentialStore. Usable records win over
// disabled ones with the same name.
func (s *MemoryStore) FindByName(_ context.Context, name string) (*CarrierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var fallback *CarrierRecord
	for _, id := range ids {
		r := s.records[id]
		if !strings.EqualFold(r.Name, name) {
			continue
		}
		if r.Usable() {
			return &r, nil
		}
		if fallback == nil {
			fallback = &r
		}
	}
	if fallback == nil {
		return nil, ErrRecordNotFound
	}
	return fallback, nil
}
