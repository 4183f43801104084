// Package state implements the zone state store: the merge/validation/
// broadcast engine that applies deltas to the canonical per-zone state,
// enforces the radio and duration invariants, throttles broadcasts and
// pushes change notifications outward.
package state

import (
	"math"
	"sync"
	"time"

	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/zone"
)

// broadcastThrottle suppresses time-only broadcasts that arrive within this
// window of the previous broadcast.
const broadcastThrottle = 1000 * time.Millisecond

// Notifier receives fire-and-forget outbound events. Failures inside a
// notifier must never affect zone state.
type Notifier interface {
	NotifyZoneStateChanged(zoneID int, st models.ZoneState)
	NotifyQueueUpdated(zoneID, size int)
	NotifyRoomFavoritesChanged(zoneID int)
	NotifyRecentlyPlayedChanged()
	NotifyRescan()
	NotifyAudioSyncEvent(payload []any)
}

// GroupSync propagates a committed patch to linked group members. It is
// called synchronously after the owning zone's state has committed, so the
// leader commits first and followers mirror.
type GroupSync interface {
	PropagatePatch(fromZoneID int, delta models.StateDelta)
}

// Observer is invoked after every committed patch.
type Observer func(zoneID int, delta models.StateDelta, committed models.ZoneState)

// Store applies state deltas for all zones.
type Store struct {
	mu       sync.Mutex
	registry *zone.Registry
	notifier Notifier

	sessions  player.SessionManager
	observer  Observer
	groupSync GroupSync

	// stationCache remembers the last non-empty station per zone so radio
	// metadata updates that drop the station tag can be backfilled.
	stationCache map[int]string

	now func() time.Time
}

// New creates a zone state store. registry and notifier are required; using
// the store without them is a programmer error and fails loudly.
func New(registry *zone.Registry, notifier Notifier) *Store {
	if registry == nil || notifier == nil {
		panic("state: store requires a registry and a notifier")
	}
	return &Store{
		registry:     registry,
		notifier:     notifier,
		stationCache: make(map[int]string),
		now:          time.Now,
	}
}

// SetSessionManager wires the audio session layer. Optional.
func (s *Store) SetSessionManager(sm player.SessionManager) { s.sessions = sm }

// SetObserver registers the patch observer. Optional.
func (s *Store) SetObserver(fn Observer) { s.observer = fn }

// SetGroupSync wires group propagation. Optional.
func (s *Store) SetGroupSync(gs GroupSync) { s.groupSync = gs }

// Patch applies delta on top of the zone's state after running the
// derivation rules, decides whether to broadcast, and notifies dependent
// subsystems. A missing zone is a silent no-op.
func (s *Store) Patch(zoneID int, delta models.StateDelta, force bool) {
	zc := s.registry.Get(zoneID)
	if zc == nil {
		return
	}

	s.mu.Lock()
	cur := zc.State()

	// 1. Provisional merge, evaluated but not committed, so radio/line-in
	// classification sees the post-patch world.
	provisional := delta.Merge(cur)

	// 2. File-kind tag follows the audiopath, unless the patch carries an
	// explicit kind. Alert playback stamps its own category code and must
	// not be reclassified by the URL it streams from.
	if delta.Type == nil {
		if kind := models.FileKindFor(provisional.AudioPath, provisional.AudioType); kind != provisional.Type {
			delta.Type = &kind
			provisional.Type = kind
		}
	}

	// 3. Radio invariants: no meaningful position or duration, audiotype
	// pinned, station preserved or backfilled.
	if models.IsRadio(provisional.AudioPath, provisional.AudioType) {
		if delta.AudioType == nil {
			at := models.AudioTypeRadio
			delta.AudioType = &at
			provisional.AudioType = at
		}
		if delta.Time == nil {
			zero := 0.0
			delta.Time = &zero
			provisional.Time = 0
		}
		if delta.Duration == nil {
			zero := 0.0
			delta.Duration = &zero
			provisional.Duration = 0
		}
		if provisional.Station == "" {
			fallback := cur.Station
			if fallback == "" {
				fallback = s.stationCache[zoneID]
			}
			if fallback != "" {
				delta.Station = &fallback
				provisional.Station = fallback
			}
		}
		if provisional.Station != "" {
			s.stationCache[zoneID] = provisional.Station
		}
	}

	// 4. Duration guard. Runs before the merge commits; a stop arriving with
	// a stale duration keeps the guard's verdict, the merge never re-derives.
	if delta.Duration != nil {
		s.guardDuration(&delta, cur, provisional)
	}

	// 5. No-op suppression: nothing to merge means no broadcast and no side
	// effects at all.
	if !force && delta.EqualOn(cur) {
		s.mu.Unlock()
		return
	}

	// 6. Commit immutably.
	next := delta.Merge(cur)
	zc.SetState(next)

	// 7. Broadcast throttling for time-only patches.
	now := s.now()
	broadcast := true
	if delta.TimeOnly() && !force && now.Sub(zc.LastBroadcastAt()) < broadcastThrottle {
		broadcast = false
	}
	if broadcast {
		zc.SetLastBroadcastAt(now)
	}
	s.mu.Unlock()

	if broadcast {
		s.notifier.NotifyZoneStateChanged(zoneID, next)
	}

	// 8. Observer and group propagation, after the owner committed.
	if s.observer != nil {
		s.observer(zoneID, delta, next)
	}
	if s.groupSync != nil {
		s.groupSync.PropagatePatch(zoneID, delta)
	}

	// 9. Audio session sync.
	s.syncSession(zoneID, delta, next)
}

// guardDuration validates an incoming duration and enforces monotonicity for
// an unchanged track.
func (s *Store) guardDuration(delta *models.StateDelta, cur, provisional models.ZoneState) {
	d := *delta.Duration
	radio := models.IsRadio(provisional.AudioPath, provisional.AudioType)
	linein := models.IsLineInPath(provisional.AudioPath)
	stopping := provisional.Mode == models.ModeStop

	// Negative, NaN and infinite durations are never valid, in any mode.
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		delta.Duration = nil
		return
	}
	// Zero means "unknown" for a normal track, but is the legitimate resting
	// value for radio, line-in and a stopping zone.
	if d == 0 && !radio && !linein && !stopping {
		delta.Duration = nil
		return
	}
	if d > 0 && !radio && cur.Duration > d &&
		models.NormalizeTrackID(provisional.AudioPath) == models.NormalizeTrackID(cur.AudioPath) {
		// Same track: duration never regresses, late accurate values only
		// ever grow it.
		keep := cur.Duration
		delta.Duration = &keep
	}
}

// syncSession pushes corrected timing and recomposed metadata into an active
// audio session for the zone, if one exists.
func (s *Store) syncSession(zoneID int, delta models.StateDelta, next models.ZoneState) {
	if s.sessions == nil {
		return
	}
	sess, ok := s.sessions.Session(zoneID)
	if !ok {
		return
	}

	if delta.TouchesTiming() {
		s.sessions.UpdateTiming(zoneID, next.Time, next.Duration)
	}

	if delta.TouchesMetadata() {
		last := sess.Metadata()
		composed := player.SessionMetadata{
			Title:     firstNonEmpty(next.Title, last.Title),
			Artist:    firstNonEmpty(next.Artist, last.Artist),
			Album:     firstNonEmpty(next.Album, last.Album),
			CoverURL:  firstNonEmpty(next.CoverURL, last.CoverURL),
			Station:   firstNonEmpty(next.Station, last.Station),
			AudioPath: firstNonEmpty(next.AudioPath, last.AudioPath),
		}
		if composed != last {
			s.sessions.UpdateMetadata(zoneID, composed)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
