// Package alerts layers transient, self-expiring alert playback (chimes,
// TTS, fire/bell) on top of normal zone playback. Snapshot/restore semantics
// guarantee an alert never permanently corrupts zone state.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/playback"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/state"
	"github.com/audiozone/zonecast/internal/zone"
)

const (
	// outputReadyTimeout bounds the wait for outputs to report readiness
	// before an alert starts; after the timeout the alert proceeds anyway.
	outputReadyTimeout = 2000 * time.Millisecond
	outputReadyPoll    = 100 * time.Millisecond

	// alertEndMarginMs pads a known alert duration so the auto-stop never
	// cuts off the tail.
	alertEndMarginMs = 750

	// alertUnknownDurationMs is the auto-stop delay when the alert media
	// duration is unknown.
	alertUnknownDurationMs = 20000
)

// maxTimerDelay keeps the auto-stop delay representable as a timer duration.
const maxTimerDelay = time.Duration(math.MaxInt64 / 2)

// Coordinator runs the per-zone alert state machine:
// Idle -> Starting -> Playing -> Stopping -> Idle. At most one alert is
// active per zone; starting a new one tears down the old one first.
type Coordinator struct {
	registry *zone.Registry
	store    *state.Store
	playback *playback.Coordinator

	readyTimeout time.Duration
	readyPoll    time.Duration
}

// New creates an alerts coordinator. All dependencies are required; wiring
// the alert subsystem without them is a programmer error and fails loudly.
func New(registry *zone.Registry, store *state.Store, pb *playback.Coordinator) *Coordinator {
	if registry == nil || store == nil || pb == nil {
		panic("alerts: coordinator requires registry, store and playback")
	}
	return &Coordinator{
		registry:     registry,
		store:        store,
		playback:     pb,
		readyTimeout: outputReadyTimeout,
		readyPoll:    outputReadyPoll,
	}
}

// Start plays an alert on a zone, snapshotting everything it overrides.
// A missing zone is a silent no-op.
func (c *Coordinator) Start(ctx context.Context, zoneID int, alertType string, media zone.AlertMedia, volume int) error {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		slog.Debug("alerts: start on unknown zone", "zone", zoneID)
		return nil
	}

	// Idempotent re-entry: an active alert is torn down (and its snapshot
	// restored) before the new one takes over.
	if zc.Alert != nil {
		c.Stop(ctx, zoneID)
		zc = c.registry.Get(zoneID)
		if zc == nil {
			return nil
		}
	}

	c.waitOutputsReady(ctx, zc)

	// The readiness poll can take a while; the zone may be gone by now.
	if zc = c.registry.Get(zoneID); zc == nil {
		return nil
	}

	snap := captureSnapshot(zc)
	durationMs := alertDurationMs(media)

	alert := &zone.AlertState{
		Type:       alertType,
		Media:      media,
		DurationMs: durationMs,
		Snapshot:   snap,
	}
	zc.Alert = alert

	c.playback.SetInputMode(zc, models.InputAlert)

	vol := clampVolume(volume, zc.Config.MaxVol)
	if err := zc.Player.SetVolume(ctx, vol); err != nil {
		slog.Warn("alerts: set volume failed", "zone", zoneID, "err", err)
	}

	title := media.Title
	if title == "" {
		title = alertType
	}
	sess, err := zc.Player.PlayURI(ctx, media.URL, player.Metadata{
		Title:    title,
		Duration: float64(media.DurationMs) / 1000,
	}, 0)
	if err != nil || sess == nil {
		// Roll back before reporting: the zone must come out exactly as it
		// went in.
		c.Stop(ctx, zoneID)
		if err == nil {
			err = fmt.Errorf("alerts: no session for %q", media.URL)
		}
		return fmt.Errorf("alerts: start %s on zone %d: %w", alertType, zoneID, err)
	}

	// Re-check ownership: a stop that interleaved with the player start has
	// already restored the snapshot and wins.
	if zc = c.registry.Get(zoneID); zc == nil || zc.Alert != alert {
		return nil
	}

	var durationSec float64
	if durationMs != nil {
		durationSec = float64(*durationMs) / 1000
	}
	delta := state.AlertStarted(alertType, title, media.URL, durationSec)
	delta.Volume = &vol
	c.store.Patch(zoneID, delta, true)

	if durationMs != nil {
		delay := time.Duration(*durationMs) * time.Millisecond
		if delay > maxTimerDelay {
			delay = maxTimerDelay
		}
		alert.Timer = time.AfterFunc(delay, func() {
			c.Stop(context.Background(), zoneID)
		})
	}
	return nil
}

// Stop tears down an active alert and restores the pre-alert snapshot.
// No-op when no alert is active.
func (c *Coordinator) Stop(ctx context.Context, zoneID int) {
	zc := c.registry.Get(zoneID)
	if zc == nil {
		return
	}
	alert := zc.Alert
	if alert == nil {
		return
	}
	// Clear before doing anything else so a re-entrant stop (timer racing a
	// manual stop) is a no-op.
	zc.Alert = nil
	if alert.Timer != nil {
		alert.Timer.Stop()
	}

	if err := zc.Player.Stop(ctx, "alert_end"); err != nil {
		slog.Warn("alerts: player stop failed", "zone", zoneID, "err", err)
	}

	snap := alert.Snapshot
	c.playback.SetInputMode(zc, snap.InputMode)
	zc.SetActiveOutput(snap.ActiveOutput, snap.ActiveOutputTypes)
	zc.Queue.Restore(snap.Queue)
	if err := zc.Player.SetVolume(ctx, snap.Volume); err != nil {
		slog.Warn("alerts: restore volume failed", "zone", zoneID, "err", err)
	}

	restore := snap.StatePatch
	mode := snap.Mode
	restore.Mode = &mode
	vol := snap.Volume
	restore.Volume = &vol
	c.store.Patch(zoneID, restore, true)

	if snap.Mode != models.ModePlay {
		return
	}

	// The zone was playing: resume the queue's current item through the
	// normal queue-start path.
	item := zc.Queue.Current()
	if item == nil {
		return
	}
	sess, err := c.playback.StartQueuePlayback(ctx, zc, item.AudioPath, player.Metadata{
		Title:    item.Title,
		Artist:   item.Artist,
		Album:    item.Album,
		CoverURL: item.CoverURL,
		Station:  item.Station,
		Duration: item.Duration,
	}, 0)
	if err != nil || sess == nil {
		slog.Warn("alerts: could not resume after alert", "zone", zoneID, "err", err)
		stop := models.ModeStop
		c.store.Patch(zoneID, models.StateDelta{Mode: &stop}, true)
		return
	}
	c.store.Patch(zoneID, state.TrackResumed(*item, zc.Queue.CurrentIndex()), true)
}

// Active reports whether a zone has an alert playing.
func (c *Coordinator) Active(zoneID int) bool {
	zc := c.registry.Get(zoneID)
	return zc != nil && zc.Alert != nil
}

// waitOutputsReady polls until at least one non-spotify-input output reports
// ready, bounded by the ready timeout. Outputs without a readiness probe are
// treated as immediately ready. Proceeds after timeout regardless.
func (c *Coordinator) waitOutputsReady(ctx context.Context, zc *zone.Context) {
	deadline := time.Now().Add(c.readyTimeout)
	for {
		if anyOutputReady(zc.Outputs) {
			return
		}
		if time.Now().After(deadline) {
			slog.Debug("alerts: outputs not ready before timeout, proceeding", "zone", zc.ID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.readyPoll):
		}
	}
}

func anyOutputReady(outputs []player.Output) bool {
	if len(outputs) == 0 {
		return true
	}
	for _, out := range outputs {
		if out.Type() == "spotify-input" {
			continue
		}
		probe, ok := out.(player.ReadinessProber)
		if !ok || probe.IsReady() {
			return true
		}
	}
	return false
}

// captureSnapshot deep-copies everything alert playback will override.
func captureSnapshot(zc *zone.Context) zone.AlertSnapshot {
	st := zc.State()
	activeOutput, activeTypes := zc.ActiveOutput()

	title := st.Title
	artist := st.Artist
	album := st.Album
	cover := st.CoverURL
	path := st.AudioPath
	station := st.Station
	qindex := st.QIndex
	qid := st.QID
	elapsed := st.Time
	duration := st.Duration
	audiotype := st.AudioType
	kind := st.Type
	source := st.SourceName

	return zone.AlertSnapshot{
		Mode:              st.Mode,
		InputMode:         zc.InputMode(),
		ActiveOutput:      activeOutput,
		ActiveOutputTypes: activeTypes,
		Volume:            st.Volume,
		Queue:             zc.Queue.Snapshot(),
		StatePatch: models.StateDelta{
			Title:      &title,
			Artist:     &artist,
			Album:      &album,
			CoverURL:   &cover,
			AudioPath:  &path,
			Station:    &station,
			QIndex:     &qindex,
			QID:        &qid,
			Time:       &elapsed,
			Duration:   &duration,
			AudioType:  &audiotype,
			Type:       &kind,
			SourceName: &source,
		},
	}
}

// alertDurationMs computes the auto-stop delay. Looping alerts have none.
func alertDurationMs(media zone.AlertMedia) *int64 {
	if media.Loop {
		return nil
	}
	ms := int64(alertUnknownDurationMs)
	if media.DurationMs > 0 {
		ms = media.DurationMs + alertEndMarginMs
	}
	return &ms
}

func clampVolume(level, max int) int {
	if level < 0 {
		level = 0
	}
	if max <= 0 {
		max = 100
	}
	if level > max {
		level = max
	}
	return level
}
