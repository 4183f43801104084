package state

import (
	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/zone"
)

// GroupMirror is the default GroupSync: zones configured with the same group
// id mirror the leader's now-playing metadata and mode. Volume and timing
// stay per-zone. Propagation converges because a follower patch that changes
// nothing is suppressed by the store before it can propagate again.
type GroupMirror struct {
	registry *zone.Registry
	store    *Store
	notifier Notifier
}

// NewGroupMirror wires a mirror over the registry. Call store.SetGroupSync
// with the result.
func NewGroupMirror(registry *zone.Registry, store *Store, notifier Notifier) *GroupMirror {
	if registry == nil || store == nil {
		panic("state: group mirror requires registry and store")
	}
	return &GroupMirror{registry: registry, store: store, notifier: notifier}
}

// PropagatePatch mirrors the shareable fields of a committed patch to the
// other members of the leader's group.
func (g *GroupMirror) PropagatePatch(fromZoneID int, delta models.StateDelta) {
	leader := g.registry.Get(fromZoneID)
	if leader == nil || leader.Config.Group == "" {
		return
	}

	mirror := models.StateDelta{
		Mode:      delta.Mode,
		Title:     delta.Title,
		Artist:    delta.Artist,
		Album:     delta.Album,
		CoverURL:  delta.CoverURL,
		Station:   delta.Station,
		AudioPath: delta.AudioPath,
		AudioType: delta.AudioType,
		Type:      delta.Type,
	}
	if mirror == (models.StateDelta{}) {
		return
	}

	var synced []any
	for _, member := range g.registry.List() {
		if member.ID == fromZoneID || member.Config.Group != leader.Config.Group {
			continue
		}
		// Already-converged members are not re-patched and not reported.
		if mirror.EqualOn(member.State()) {
			continue
		}
		g.store.Patch(member.ID, mirror, false)
		synced = append(synced, member.ID)
	}
	if len(synced) > 0 && g.notifier != nil {
		g.notifier.NotifyAudioSyncEvent(synced)
	}
}
