package config

import "sync"

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemStore returns a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the stored snapshot, or DefaultSnapshot if none has
// been saved yet.
func (m *MemStore) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		def := DefaultSnapshot()
		return &def, nil
	}
	cp := m.snap.DeepCopy()
	return &cp, nil
}

// Save stores a deep copy of the given snapshot in memory.
func (m *MemStore) Save(snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := snap.DeepCopy()
	m.snap = &cp
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

var _ Store = (*MemStore)(nil)
