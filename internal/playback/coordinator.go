// Package playback implements the playback coordinator: it decides how to
// start, resume and stop playback for a zone and drives queue transitions
// (manual steps and end-of-track advances).
package playback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/recents"
	"github.com/audiozone/zonecast/internal/state"
	"github.com/audiozone/zonecast/internal/zone"
)

// Stop reasons dispatched to outputs.
const (
	ReasonQueueEnd        = "queue_end"
	ReasonQueueNextFailed = "queue_next_failed"
	ReasonQueueInvalid    = "queue_invalid_next"
	ReasonUser            = "user"
)

// ErrSuperseded is returned when a playback start was overtaken by a newer
// command while waiting on stream resolution. The stale continuation must
// ignore its result; the zone already belongs to someone else.
var ErrSuperseded = errors.New("playback: superseded by newer command")

// Coordinator routes playback commands for all zones.
type Coordinator struct {
	registry *zone.Registry
	store    *state.Store
	resolver player.ContentResolver
	inputs   player.InputsPort
	notifier state.Notifier
	history  *recents.History
}

// New creates a playback coordinator. registry, store and resolver are
// required; wiring the coordinator without them is a programmer error.
func New(registry *zone.Registry, store *state.Store, resolver player.ContentResolver, notifier state.Notifier) *Coordinator {
	if registry == nil || store == nil || resolver == nil {
		panic("playback: coordinator requires registry, store and resolver")
	}
	return &Coordinator{
		registry: registry,
		store:    store,
		resolver: resolver,
		notifier: notifier,
	}
}

// SetInputsPort wires the provider input boundary. Optional.
func (c *Coordinator) SetInputsPort(in player.InputsPort) { c.inputs = in }

// SetRecents wires the recently-played history. Optional.
func (c *Coordinator) SetRecents(h *recents.History) { c.history = h }

// SetInputMode declares which subsystem currently owns the zone. The queue
// authority follows the fixed input-mode mapping.
func (c *Coordinator) SetInputMode(zc *zone.Context, mode models.InputMode) {
	zc.SetInputMode(mode)
	zc.Queue.SetAuthority(models.AuthorityForInput(mode))
}

// StartQueuePlayback resolves an audiopath and starts it on the zone's
// player. Returns ErrSuperseded when a newer command took the zone while the
// resolution was in flight.
func (c *Coordinator) StartQueuePlayback(ctx context.Context, zc *zone.Context, audiopath string, meta player.Metadata, startAt float64) (*player.Session, error) {
	seq := zc.NextPlaySeq()

	resolved, err := c.resolver.ResolvePlaybackSource(ctx, player.ResolveRequest{
		ZoneID:    zc.ID,
		ZoneName:  zc.Name,
		AudioPath: audiopath,
	})
	if err != nil {
		return nil, err
	}
	if zc.PlaySeq() != seq {
		return nil, ErrSuperseded
	}

	if resolved.Metadata != nil {
		fillMetadata(&meta, *resolved.Metadata)
	}

	if resolved.OutputOnly {
		// The output transport plays this itself; there is no local session.
		player.DispatchOutputs(ctx, zc.Outputs, "start", map[string]any{"audiopath": audiopath})
		return &player.Session{ID: "output-" + uuid.New().String(), URI: audiopath, StartedAt: time.Now()}, nil
	}

	var sess *player.Session
	if resolved.Source != nil {
		sess, err = zc.Player.PlayExternal(ctx, resolved.Source.Label, *resolved.Source, meta, startAt)
	} else {
		sess, err = zc.Player.PlayURI(ctx, audiopath, meta, startAt)
	}
	if err != nil {
		return nil, err
	}
	if zc.PlaySeq() != seq {
		return nil, ErrSuperseded
	}

	if c.inputs != nil {
		c.inputs.MarkSessionActive(zc.ID)
	}
	return sess, nil
}

// StepQueue advances the queue cursor by delta for a manual step request.
// Requests from a non-authoritative queue are a silent no-op.
func (c *Coordinator) StepQueue(ctx context.Context, zoneID, delta int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if zc.Queue.Len() == 0 {
		return
	}
	if zc.Queue.Authority() != models.AuthorityLocal {
		slog.Debug("playback: step ignored, queue not locally owned",
			"zone", zoneID, "authority", zc.Queue.Authority())
		return
	}
	c.advance(ctx, zoneID, delta)
}

// HandleEndOfTrack advances the queue when the current track finishes.
func (c *Coordinator) HandleEndOfTrack(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if zc.Queue.Len() == 0 {
		c.stopWithReason(ctx, zc, ReasonQueueEnd)
		return
	}
	if zc.Queue.Authority() != models.AuthorityLocal {
		slog.Debug("playback: end-of-track ignored, queue not locally owned",
			"zone", zoneID, "authority", zc.Queue.Authority())
		return
	}
	c.advance(ctx, zoneID, 1)
}

// advance moves the cursor, starts the new current item and commits the
// resulting state patch. Every blocking call is followed by a re-fetch of the
// zone and an authority re-check: a stale continuation must never mutate a
// zone that moved on.
func (c *Coordinator) advance(ctx context.Context, zoneID, delta int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}

	next := zc.Queue.Step(delta)
	if next < 0 {
		c.stopWithReason(ctx, zc, ReasonQueueEnd)
		return
	}
	item := zc.Queue.Current()
	if item == nil {
		c.stopWithReason(ctx, zc, ReasonQueueInvalid)
		return
	}

	sess, err := c.StartQueuePlayback(ctx, zc, item.AudioPath, metaFromItem(*item), 0)
	if errors.Is(err, ErrSuperseded) {
		return
	}

	// Re-fetch after the suspension point: the zone may be gone or owned by
	// another driver by now.
	zc = c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if err != nil || sess == nil {
		slog.Warn("playback: could not start next queue item",
			"zone", zoneID, "audiopath", item.AudioPath, "err", err)
		c.stopWithReason(ctx, zc, ReasonQueueNextFailed)
		return
	}
	if zc.Queue.Authority() != models.AuthorityLocal {
		return
	}

	c.store.Patch(zoneID, state.TrackStarted(*item, next, zc.Name), false)

	if c.history != nil {
		it := *item
		go c.history.Record(zoneID, it)
	}
}

// stopWithReason stops the player, dispatches a stop to all outputs and
// commits a stop-mode patch. Playback is never left in an ambiguous state.
func (c *Coordinator) stopWithReason(ctx context.Context, zc *zone.Context, reason string) {
	if err := zc.Player.Stop(ctx, reason); err != nil {
		slog.Warn("playback: player stop failed", "zone", zc.ID, "reason", reason, "err", err)
	}
	player.DispatchOutputs(ctx, zc.Outputs, "stop", map[string]any{"reason": reason})

	mode := models.ModeStop
	zero := 0.0
	c.store.Patch(zc.ID, models.StateDelta{Mode: &mode, Time: &zero}, false)
}

// Play starts or resumes playback. A paused zone resumes; a stopped zone
// starts the current queue item, or the first item when the cursor is unset.
func (c *Coordinator) Play(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	switch zc.State().Mode {
	case models.ModePlay:
		return
	case models.ModePause:
		c.Resume(ctx, zoneID)
		return
	}
	if zc.Queue.Len() == 0 {
		return
	}
	if zc.Queue.CurrentIndex() < 0 {
		zc.Queue.SetCurrentIndex(0)
	}
	item := zc.Queue.Current()
	if item == nil {
		return
	}

	sess, err := c.StartQueuePlayback(ctx, zc, item.AudioPath, metaFromItem(*item), 0)
	if errors.Is(err, ErrSuperseded) {
		return
	}
	zc = c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if err != nil || sess == nil {
		slog.Warn("playback: could not start queue item",
			"zone", zoneID, "audiopath", item.AudioPath, "err", err)
		c.stopWithReason(ctx, zc, ReasonQueueNextFailed)
		return
	}

	c.store.Patch(zoneID, state.TrackStarted(*item, zc.Queue.CurrentIndex(), zc.Name), false)

	if c.history != nil {
		it := *item
		go c.history.Record(zoneID, it)
	}
}

// Pause pauses the zone's player and commits the mode change.
func (c *Coordinator) Pause(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if err := zc.Player.Pause(ctx); err != nil {
		slog.Warn("playback: pause failed", "zone", zoneID, "err", err)
		return
	}
	mode := models.ModePause
	c.store.Patch(zoneID, models.StateDelta{Mode: &mode}, false)
}

// Resume resumes the zone's player and commits the mode change.
func (c *Coordinator) Resume(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if err := zc.Player.Resume(ctx); err != nil {
		slog.Warn("playback: resume failed", "zone", zoneID, "err", err)
		return
	}
	mode := models.ModePlay
	c.store.Patch(zoneID, models.StateDelta{Mode: &mode}, false)
}

// Stop stops the zone's player on user request.
func (c *Coordinator) Stop(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	c.stopWithReason(ctx, zc, ReasonUser)
}

// SetVolume clamps the level to the zone's ceiling, applies it to the player
// and commits it.
func (c *Coordinator) SetVolume(ctx context.Context, zoneID, level int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	if level < 0 {
		level = 0
	}
	if max := zc.Config.MaxVol; max > 0 && level > max {
		level = max
	}
	if err := zc.Player.SetVolume(ctx, level); err != nil {
		slog.Warn("playback: set volume failed", "zone", zoneID, "err", err)
		return
	}
	c.store.Patch(zoneID, models.StateDelta{Volume: &level}, false)
}

// SetQueue replaces a zone's queue contents and notifies listeners.
func (c *Coordinator) SetQueue(zoneID int, items []models.QueueItem, index int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	for i := range items {
		if items[i].UniqueID == "" {
			items[i].UniqueID = uuid.New().String()
		}
	}
	zc.Queue.SetItems(items, index)
	if c.notifier != nil {
		c.notifier.NotifyQueueUpdated(zoneID, len(items))
	}
}

func metaFromItem(item models.QueueItem) player.Metadata {
	return player.Metadata{
		Title:    item.Title,
		Artist:   item.Artist,
		Album:    item.Album,
		CoverURL: item.CoverURL,
		Station:  item.Station,
		Duration: item.Duration,
	}
}

func fillMetadata(dst *player.Metadata, src player.Metadata) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Artist == "" {
		dst.Artist = src.Artist
	}
	if dst.Album == "" {
		dst.Album = src.Album
	}
	if dst.CoverURL == "" {
		dst.CoverURL = src.CoverURL
	}
	if dst.Station == "" {
		dst.Station = src.Station
	}
	if dst.Duration == 0 {
		dst.Duration = src.Duration
	}
}
