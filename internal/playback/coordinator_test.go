package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/audiozone/zonecast/internal/config"
	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/state"
	"github.com/audiozone/zonecast/internal/zone"
)

type testNotifier struct {
	mu           sync.Mutex
	stateChanges int
	queueUpdates []int
}

func (n *testNotifier) NotifyZoneStateChanged(zoneID int, st models.ZoneState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stateChanges++
}
func (n *testNotifier) NotifyQueueUpdated(zoneID, size int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queueUpdates = append(n.queueUpdates, size)
}
func (n *testNotifier) NotifyRoomFavoritesChanged(zoneID int) {}
func (n *testNotifier) NotifyRecentlyPlayedChanged() {}
func (n *testNotifier) NotifyRescan() {}
func (n *testNotifier) NotifyAudioSyncEvent(payload []any) {}

type rig struct {
	coord    *Coordinator
	registry *zone.Registry
	player   *player.MockPlayer
	output   *player.MockOutput
	resolver *player.MockResolver
	notifier *testNotifier
}

func newRig(t *testing.T) *rig {
	t.Helper()
	registry := zone.NewRegistry()
	mock := player.NewMockPlayer()
	out := player.NewMockOutput("local")
	registry.Create(config.ZoneConfig{ID: 1, Name: "Kitchen", Volume: 30, MaxVol: 80},
		mock, []player.Output{out})

	notifier := &testNotifier{}
	store := state.New(registry, notifier)
	resolver := player.NewMockResolver()
	return &rig{
		coord:    New(registry, store, resolver, notifier),
		registry: registry,
		player:   mock,
		output:   out,
		resolver: resolver,
		notifier: notifier,
	}
}

func threeTracks() []models.QueueItem {
	return []models.QueueItem{
		{UniqueID: "a", AudioPath: "music/one.flac", Title: "One", Duration: 100},
		{UniqueID: "b", AudioPath: "music/two.flac", Title: "Two", Duration: 200},
		{UniqueID: "c", AudioPath: "music/three.flac", Title: "Three", Duration: 300},
	}
}

func TestEndOfTrackWalksQueueToCompletion(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)

	r.coord.HandleEndOfTrack(ctx, 1)
	if got := zc.Queue.CurrentIndex(); got != 1 {
		t.Fatalf("after first end-of-track index = %d, want 1", got)
	}
	st := zc.State()
	if st.Mode != models.ModePlay || st.Title != "Two" || st.QIndex != 1 || st.QID != "b" {
		t.Errorf("state after advance: %+v", st)
	}
	if st.Time != 0 {
		t.Errorf("new track did not reset position, time = %v", st.Time)
	}

	r.coord.HandleEndOfTrack(ctx, 1)
	if got := zc.Queue.CurrentIndex(); got != 2 {
		t.Fatalf("after second end-of-track index = %d, want 2", got)
	}

	// Last track ends: playback stops, the cursor stays on the last item.
	r.coord.HandleEndOfTrack(ctx, 1)
	if got := zc.Queue.CurrentIndex(); got != 2 {
		t.Errorf("queue-end moved the cursor to %d", got)
	}
	if zc.State().Mode != models.ModeStop {
		t.Errorf("mode after queue end = %s", zc.State().Mode)
	}
	if r.player.StopReason != ReasonQueueEnd {
		t.Errorf("stop reason = %q, want %q", r.player.StopReason, ReasonQueueEnd)
	}
	actions := r.output.Actions()
	if len(actions) == 0 || actions[len(actions)-1] != "stop" {
		t.Errorf("outputs did not get a stop dispatch: %v", actions)
	}
}

func TestEndOfTrackEmptyQueueStops(t *testing.T) {
	r := newRig(t)
	r.coord.HandleEndOfTrack(context.Background(), 1)
	if r.player.StopReason != ReasonQueueEnd {
		t.Errorf("stop reason = %q, want %q", r.player.StopReason, ReasonQueueEnd)
	}
}

func TestStepIgnoredWithoutLocalAuthority(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)
	r.coord.SetInputMode(zc, models.InputSpotify)

	r.coord.StepQueue(context.Background(), 1, 1)

	if got := zc.Queue.CurrentIndex(); got != 0 {
		t.Errorf("non-authoritative step moved the cursor to %d", got)
	}
	if len(r.player.Calls) != 0 {
		t.Errorf("non-authoritative step touched the player: %v", r.player.Calls)
	}
}

func TestEndOfTrackIgnoredWithoutLocalAuthority(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)
	r.coord.SetInputMode(zc, models.InputMusicAssistant)

	r.coord.HandleEndOfTrack(context.Background(), 1)

	if got := zc.Queue.CurrentIndex(); got != 0 {
		t.Errorf("non-authoritative end-of-track moved the cursor to %d", got)
	}
	if r.player.StopReason != "" {
		t.Errorf("non-authoritative end-of-track stopped the player: %q", r.player.StopReason)
	}
}

func TestAuthorityRestoredWithInputMode(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)

	r.coord.SetInputMode(zc, models.InputAirPlay)
	if zc.Queue.Authority() != models.AuthorityAirPlay {
		t.Fatalf("authority = %s", zc.Queue.Authority())
	}
	r.coord.SetInputMode(zc, models.InputNone)

	r.coord.StepQueue(context.Background(), 1, 1)
	if got := zc.Queue.CurrentIndex(); got != 1 {
		t.Errorf("local step after authority return, index = %d, want 1", got)
	}
}

func TestAdvanceFailureStopsWithReason(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)
	r.player.FailNextPlay = true

	r.coord.HandleEndOfTrack(context.Background(), 1)

	if r.player.StopReason != ReasonQueueNextFailed {
		t.Errorf("stop reason = %q, want %q", r.player.StopReason, ReasonQueueNextFailed)
	}
	if zc.State().Mode != models.ModeStop {
		t.Errorf("mode = %s, want stop", zc.State().Mode)
	}
}

func TestResolutionFailureStopsWithReason(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)
	r.resolver.FailAll = true

	r.coord.HandleEndOfTrack(context.Background(), 1)

	if r.player.StopReason != ReasonQueueNextFailed {
		t.Errorf("stop reason = %q, want %q", r.player.StopReason, ReasonQueueNextFailed)
	}
	if zc.State().Mode != models.ModeStop {
		t.Errorf("mode = %s, want stop", zc.State().Mode)
	}
}

func TestPlayStartsCurrentQueueItem(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 1)

	r.coord.Play(ctx, 1)

	st := zc.State()
	if st.Mode != models.ModePlay || st.Title != "Two" || st.QIndex != 1 {
		t.Errorf("state after play: %+v", st)
	}
	if r.player.LastURI != "music/two.flac" {
		t.Errorf("player got %q", r.player.LastURI)
	}
}

func TestPlayResumesWhenPaused(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)

	r.coord.Play(ctx, 1)
	r.coord.Pause(ctx, 1)
	if zc.State().Mode != models.ModePause {
		t.Fatalf("mode after pause = %s", zc.State().Mode)
	}

	r.coord.Play(ctx, 1)
	if zc.State().Mode != models.ModePlay {
		t.Errorf("mode after play-from-pause = %s", zc.State().Mode)
	}
	last := r.player.Calls[len(r.player.Calls)-1]
	if last != "resume" {
		t.Errorf("last player call = %q, want resume", last)
	}
}

func TestPlayEmptyQueueIsNoop(t *testing.T) {
	r := newRig(t)
	r.coord.Play(context.Background(), 1)
	if len(r.player.Calls) != 0 {
		t.Errorf("play on empty queue touched the player: %v", r.player.Calls)
	}
}

func TestUserStopDispatchesReason(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	zc := r.registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)
	r.coord.Play(ctx, 1)

	r.coord.Stop(ctx, 1)
	if r.player.StopReason != ReasonUser {
		t.Errorf("stop reason = %q, want %q", r.player.StopReason, ReasonUser)
	}
	st := zc.State()
	if st.Mode != models.ModeStop || st.Time != 0 {
		t.Errorf("state after stop: mode=%s time=%v", st.Mode, st.Time)
	}
}

func TestSetVolumeClampsToZoneCeiling(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	zc := r.registry.Get(1)

	r.coord.SetVolume(ctx, 1, 150)
	if r.player.Volume() != 80 || zc.State().Volume != 80 {
		t.Errorf("volume above ceiling: player=%d state=%d", r.player.Volume(), zc.State().Volume)
	}

	r.coord.SetVolume(ctx, 1, -10)
	if r.player.Volume() != 0 || zc.State().Volume != 0 {
		t.Errorf("negative volume: player=%d state=%d", r.player.Volume(), zc.State().Volume)
	}
}

func TestSetQueueFillsIDsAndNotifies(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)

	r.coord.SetQueue(1, []models.QueueItem{
		{AudioPath: "music/a.flac"},
		{UniqueID: "keep", AudioPath: "music/b.flac"},
	}, 0)

	got := zc.Queue.Items()
	if got[0].UniqueID == "" {
		t.Error("missing unique id not filled")
	}
	if got[1].UniqueID != "keep" {
		t.Errorf("existing unique id replaced with %q", got[1].UniqueID)
	}
	if len(r.notifier.queueUpdates) != 1 || r.notifier.queueUpdates[0] != 2 {
		t.Errorf("queue updates = %v", r.notifier.queueUpdates)
	}
}

func TestOutputOnlySourceSkipsPlayer(t *testing.T) {
	r := newRig(t)
	zc := r.registry.Get(1)
	items := threeTracks()
	r.resolver.Sources[items[0].AudioPath] = player.ResolvedSource{OutputOnly: true}
	zc.Queue.SetItems(items, 0)

	r.coord.Play(context.Background(), 1)

	if len(r.player.Calls) != 0 {
		t.Errorf("output-only playback touched the player: %v", r.player.Calls)
	}
	actions := r.output.Actions()
	if len(actions) != 1 || actions[0] != "start" {
		t.Errorf("output actions = %v, want [start]", actions)
	}
	if zc.State().Mode != models.ModePlay {
		t.Errorf("mode = %s, want play", zc.State().Mode)
	}
}

// supersedingResolver bumps the zone's play sequence while a resolution is in
// flight, as a racing newer command would.
type supersedingResolver struct {
	zc *zone.Context
}

func (r *supersedingResolver) ResolvePlaybackSource(ctx context.Context, req player.ResolveRequest) (player.ResolvedSource, error) {
	r.zc.NextPlaySeq()
	return player.ResolvedSource{}, nil
}

func (r *supersedingResolver) ResolveMetadata(ctx context.Context, target string) (*player.Metadata, error) {
	return nil, nil
}

func TestStartQueuePlaybackSuperseded(t *testing.T) {
	registry := zone.NewRegistry()
	mock := player.NewMockPlayer()
	registry.Create(config.ZoneConfig{ID: 1, MaxVol: 100}, mock, nil)
	zc := registry.Get(1)

	notifier := &testNotifier{}
	store := state.New(registry, notifier)
	coord := New(registry, store, &supersedingResolver{zc: zc}, notifier)

	_, err := coord.StartQueuePlayback(context.Background(), zc, "music/t.flac", player.Metadata{}, 0)
	if !errors.Is(err, ErrSuperseded) {
		t.Errorf("err = %v, want ErrSuperseded", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("superseded start reached the player: %v", mock.Calls)
	}
}

func TestSupersededAdvanceLeavesStateAlone(t *testing.T) {
	registry := zone.NewRegistry()
	mock := player.NewMockPlayer()
	registry.Create(config.ZoneConfig{ID: 1, MaxVol: 100}, mock, nil)
	zc := registry.Get(1)
	zc.Queue.SetItems(threeTracks(), 0)

	notifier := &testNotifier{}
	store := state.New(registry, notifier)
	coord := New(registry, store, &supersedingResolver{zc: zc}, notifier)

	coord.HandleEndOfTrack(context.Background(), 1)

	// The stale continuation must not stop the zone or commit a track patch.
	if mock.StopReason != "" {
		t.Errorf("superseded advance stopped the player: %q", mock.StopReason)
	}
	if zc.State().Mode != models.ModeStop || zc.State().Title != "" {
		t.Errorf("superseded advance mutated state: %+v", zc.State())
	}
}
