package store

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Memory is an in-process Store for tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
	now  func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]Document),
		now:  time.Now,
	}
}

// Get implements Store. The returned document is a copy.
func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(doc), nil
}

// Update implements Store.
func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}
	maps.Copy(doc, fields)
	doc[FieldUpdatedAt] = m.now()
	return nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.data[collection]
	if !ok {
		col = make(map[string]Document)
		m.data[collection] = col
	}

	now := m.now()
	next, ok := col[id]
	if !ok {
		next = Document{FieldCreatedAt: now}
		col[id] = next
	}
	for k, v := range doc {
		if k == FieldCreatedAt {
			continue
		}
		next[k] = v
	}
	next[FieldUpdatedAt] = now
	return nil
}

// List returns copies of every document in collection.
func (m *Memory) List(collection string) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.data[collection]))
	for _, doc := range m.data[collection] {
		docs = append(docs, maps.Clone(doc))
	}
	return docs
}

var _ Store = (*Memory)(nil)
