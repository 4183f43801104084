package config

import (
	"os"
	"testing"

	"github.com/audiozone/zonecast/internal/models"
)

func sampleSnapshot() Snapshot {
	return Snapshot{Zones: []ZoneSnapshot{
		{
			ID: 1,
			State: models.ZoneState{
				Mode:   models.ModePlay,
				Title:  "Track",
				Volume: 40,
			},
			Queue: []models.QueueItem{
				{UniqueID: "a", AudioPath: "music/a.flac"},
				{UniqueID: "b", AudioPath: "music/b.flac"},
			},
			QueueIndex: 1,
		},
	}}
}

func TestSnapshotDeepCopy(t *testing.T) {
	orig := sampleSnapshot()
	cp := orig.DeepCopy()
	cp.Zones[0].Queue[0].Title = "mutated"
	cp.Zones[0].State.Title = "mutated"

	if orig.Zones[0].Queue[0].Title == "mutated" {
		t.Error("deep copy shares queue storage")
	}
	if orig.Zones[0].State.Title == "mutated" {
		t.Error("deep copy shares state")
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	snap := sampleSnapshot()

	if err := store.Save(&snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Zones) != 1 || got.Zones[0].State.Title != "Track" {
		t.Errorf("loaded snapshot = %+v", got)
	}
	if got.Zones[0].QueueIndex != 1 || len(got.Zones[0].Queue) != 2 {
		t.Errorf("queue not persisted: %+v", got.Zones[0])
	}
}

func TestJSONStoreSaveIsDebounced(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	snap := sampleSnapshot()

	if err := store.Save(&snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Nothing on disk yet.
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("save wrote immediately despite debounce")
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("flush did not write: %v", err)
	}
}

func TestJSONStoreLoadMissingFile(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Zones) != 0 {
		t.Errorf("missing file should load defaults, got %+v", got)
	}
}

func TestJSONStoreLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Zones) != 0 {
		t.Errorf("corrupt file should load defaults, got %+v", got)
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	snap := sampleSnapshot()

	if err := store.Save(&snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Zones[0].State.Title = "mutated after save"

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Zones[0].State.Title != "Track" {
		t.Errorf("mem store shares storage with caller: %+v", got.Zones[0].State)
	}
}
