package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "zones_state.json"
	debounceDelay = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *Snapshot
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, stateFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the snapshot from disk. Returns DefaultSnapshot on ENOENT or
// parse errors.
func (s *JSONStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := DefaultSnapshot()
			return &def, nil
		}
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("config: corrupt state file, using defaults", "path", s.path, "err", err)
		def := DefaultSnapshot()
		return &def, nil
	}
	return &snap, nil
}

// Save schedules a debounced write of the snapshot to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := snap.DeepCopy()
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		snap := s.pending
		s.mu.Unlock()
		if snap != nil {
			if err := s.writeAtomic(snap); err != nil {
				slog.Error("config: failed to write state", "path", s.path, "err", err)
			}
		}
	})
	return nil
}

// Flush forces an immediate write of any pending snapshot.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snap := s.pending
	s.mu.Unlock()
	if snap == nil {
		return nil
	}
	return s.writeAtomic(snap)
}

func (s *JSONStore) writeAtomic(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

var _ Store = (*JSONStore)(nil)
