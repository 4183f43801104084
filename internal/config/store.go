package config

import "github.com/audiozone/zonecast/internal/models"

// ZoneSnapshot is the persisted runtime state for one zone.
type ZoneSnapshot struct {
	ID         int                `json:"id"`
	State      models.ZoneState   `json:"state"`
	Queue      []models.QueueItem `json:"queue,omitempty"`
	QueueIndex int                `json:"queue_index"`
}

// Snapshot is the complete persisted runtime state.
type Snapshot struct {
	Zones []ZoneSnapshot `json:"zones"`
}

// DeepCopy returns a deep copy of the snapshot.
func (s Snapshot) DeepCopy() Snapshot {
	next := Snapshot{Zones: make([]ZoneSnapshot, len(s.Zones))}
	for i, z := range s.Zones {
		nz := z
		if z.Queue != nil {
			nz.Queue = make([]models.QueueItem, len(z.Queue))
			copy(nz.Queue, z.Queue)
		}
		next.Zones[i] = nz
	}
	return next
}

// DefaultSnapshot is the state used when nothing has been persisted yet.
func DefaultSnapshot() Snapshot {
	return Snapshot{}
}

// Store is the interface for persisting runtime state.
type Store interface {
	// Load loads the current snapshot. Returns DefaultSnapshot if no file exists.
	Load() (*Snapshot, error)

	// Save persists the snapshot. Implementations may debounce rapid saves.
	Save(snap *Snapshot) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending snapshot.
	Flush() error
}
