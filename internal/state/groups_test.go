package state

import (
	"testing"

	"github.com/audiozone/zonecast/internal/config"
	"github.com/audiozone/zonecast/internal/models"
)

func TestGroupMirrorPropagatesMetadata(t *testing.T) {
	store, registry, notifier := newTestStore(t,
		config.ZoneConfig{ID: 1, Name: "Kitchen", Volume: 30, MaxVol: 100, Group: "downstairs"},
		config.ZoneConfig{ID: 2, Name: "Dining", Volume: 50, MaxVol: 100, Group: "downstairs"},
		config.ZoneConfig{ID: 3, Name: "Bedroom", Volume: 20, MaxVol: 100},
	)
	store.SetGroupSync(NewGroupMirror(registry, store, notifier))

	store.Patch(1, models.StateDelta{
		Mode:      modep(models.ModePlay),
		Title:     strp("Track"),
		Artist:    strp("Artist"),
		AudioPath: strp("music/t.flac"),
	}, false)

	follower := registry.Get(2).State()
	if follower.Title != "Track" || follower.Artist != "Artist" || follower.Mode != models.ModePlay {
		t.Errorf("follower did not mirror: %+v", follower)
	}
	if follower.Volume != 50 {
		t.Errorf("follower volume changed to %d", follower.Volume)
	}

	outsider := registry.Get(3).State()
	if outsider.Title != "" {
		t.Errorf("ungrouped zone mirrored: %+v", outsider)
	}

	if len(notifier.syncs) != 1 {
		t.Fatalf("audio sync events = %d, want 1", len(notifier.syncs))
	}
	if got := notifier.syncs[0]; len(got) != 1 || got[0] != 2 {
		t.Errorf("sync payload = %v, want [2]", got)
	}
}

func TestGroupMirrorConverges(t *testing.T) {
	// Propagation recurses through the store; the follower's mirror patch is a
	// no-op on the second hop, so this must terminate.
	store, registry, notifier := newTestStore(t,
		config.ZoneConfig{ID: 1, Group: "g"},
		config.ZoneConfig{ID: 2, Group: "g"},
	)
	store.SetGroupSync(NewGroupMirror(registry, store, notifier))

	store.Patch(1, models.StateDelta{Title: strp("Track")}, false)
	store.Patch(1, models.StateDelta{Title: strp("Track")}, false)

	if got := registry.Get(2).State().Title; got != "Track" {
		t.Errorf("follower title = %q", got)
	}
	// Leader commit + follower mirror from the first patch; the second is a
	// no-op end to end.
	if notifier.broadcasts() != 2 {
		t.Errorf("broadcasts = %d, want 2", notifier.broadcasts())
	}
}

func TestGroupMirrorSkipsNonShareableFields(t *testing.T) {
	store, registry, notifier := newTestStore(t,
		config.ZoneConfig{ID: 1, Group: "g", Volume: 10},
		config.ZoneConfig{ID: 2, Group: "g", Volume: 60},
	)
	store.SetGroupSync(NewGroupMirror(registry, store, notifier))

	store.Patch(1, models.StateDelta{Volume: intp(25), Time: f64p(9)}, false)

	follower := registry.Get(2).State()
	if follower.Volume != 60 || follower.Time != 0 {
		t.Errorf("volume/timing leaked into follower: %+v", follower)
	}
	if len(notifier.syncs) != 0 {
		t.Error("sync event emitted for a non-shareable patch")
	}
}
