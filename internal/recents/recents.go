// Package recents keeps the recently-played history. Recording is
// fire-and-forget: persistence failures degrade to a log line and never
// affect playback.
package recents

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/audiozone/zonecast/internal/models"
)

const (
	recentsFileName = "recents.json"
	maxEntries      = 50
	debounceDelay   = 500 * time.Millisecond
)

// Entry is one recently-played record.
type Entry struct {
	ZoneID   int              `json:"zone_id"`
	Item     models.QueueItem `json:"item"`
	PlayedAt time.Time        `json:"played_at"`
}

// History is a bounded, persisted recently-played list.
type History struct {
	mu       sync.Mutex
	path     string
	entries  []Entry
	timer    *time.Timer
	onChange func()
}

// New loads the history from the config directory. onChange is invoked after
// every recorded entry (used to emit the recents notification); it may be nil.
func New(configDir string, onChange func()) *History {
	h := &History{
		path:     filepath.Join(configDir, recentsFileName),
		onChange: onChange,
	}
	h.load()
	return h
}

func (h *History) load() {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("recents: cannot read history", "path", h.path, "err", err)
		}
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("recents: corrupt history file, starting empty", "path", h.path, "err", err)
		return
	}
	h.entries = entries
}

// Record prepends an entry, deduplicating on track identity, and schedules a
// debounced save.
func (h *History) Record(zoneID int, item models.QueueItem) {
	id := models.NormalizeTrackID(item.AudioPath)

	h.mu.Lock()
	kept := make([]Entry, 0, len(h.entries)+1)
	kept = append(kept, Entry{ZoneID: zoneID, Item: item, PlayedAt: time.Now()})
	for _, e := range h.entries {
		if models.NormalizeTrackID(e.Item.AudioPath) == id {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > maxEntries {
		kept = kept[:maxEntries]
	}
	h.entries = kept

	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(debounceDelay, h.flush)
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange()
	}
}

// Entries returns a copy of the history, newest first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}

// Flush forces an immediate write.
func (h *History) Flush() {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()
	h.flush()
}

func (h *History) flush() {
	h.mu.Lock()
	data, err := json.MarshalIndent(h.entries, "", "  ")
	h.mu.Unlock()
	if err != nil {
		slog.Error("recents: marshal failed", "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		slog.Error("recents: mkdir failed", "path", h.path, "err", err)
		return
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		slog.Error("recents: write failed", "path", tmp, "err", err)
		return
	}
	if err := os.Rename(tmp, h.path); err != nil {
		slog.Error("recents: rename failed", "path", h.path, "err", err)
	}
}
