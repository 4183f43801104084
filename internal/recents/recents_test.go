package recents

import (
	"fmt"
	"testing"

	"github.com/audiozone/zonecast/internal/models"
)

func TestRecordNewestFirst(t *testing.T) {
	h := New(t.TempDir(), nil)
	h.Record(1, models.QueueItem{AudioPath: "music/a.flac", Title: "A"})
	h.Record(1, models.QueueItem{AudioPath: "music/b.flac", Title: "B"})

	got := h.Entries()
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Item.Title != "B" || got[1].Item.Title != "A" {
		t.Errorf("order: %q, %q", got[0].Item.Title, got[1].Item.Title)
	}
}

func TestRecordDeduplicatesByTrackIdentity(t *testing.T) {
	h := New(t.TempDir(), nil)
	h.Record(1, models.QueueItem{AudioPath: "https://cdn.example.com/t.mp3?token=1", Title: "First"})
	h.Record(1, models.QueueItem{AudioPath: "music/other.flac"})
	h.Record(2, models.QueueItem{AudioPath: "https://cdn.example.com/t.mp3?token=2", Title: "Again"})

	got := h.Entries()
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2 (replay deduplicated)", len(got))
	}
	if got[0].Item.Title != "Again" || got[0].ZoneID != 2 {
		t.Errorf("replay should move to the front: %+v", got[0])
	}
}

func TestRecordCapsEntries(t *testing.T) {
	h := New(t.TempDir(), nil)
	for i := 0; i < maxEntries+20; i++ {
		h.Record(1, models.QueueItem{AudioPath: fmt.Sprintf("music/%d.flac", i)})
	}
	if got := len(h.Entries()); got != maxEntries {
		t.Errorf("entries = %d, want %d", got, maxEntries)
	}
}

func TestRecordInvokesOnChange(t *testing.T) {
	calls := 0
	h := New(t.TempDir(), func() { calls++ })
	h.Record(1, models.QueueItem{AudioPath: "music/a.flac"})
	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1", calls)
	}
}

func TestFlushAndReload(t *testing.T) {
	dir := t.TempDir()
	h := New(dir, nil)
	h.Record(1, models.QueueItem{AudioPath: "music/a.flac", Title: "A"})
	h.Flush()

	reloaded := New(dir, nil)
	got := reloaded.Entries()
	if len(got) != 1 || got[0].Item.Title != "A" {
		t.Errorf("reloaded entries = %+v", got)
	}
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	h := New(t.TempDir(), nil)
	if len(h.Entries()) != 0 {
		t.Error("history not empty without a file")
	}
}
