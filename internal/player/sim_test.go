package player

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimPlayerFiresEndOfTrack(t *testing.T) {
	ended := make(chan int, 1)
	p := NewSimPlayer(7, func(zoneID int) { ended <- zoneID })

	sess, err := p.PlayURI(context.Background(), "music/t.flac", Metadata{Duration: 0.02}, 0)
	if err != nil || sess == nil {
		t.Fatalf("play: sess=%v err=%v", sess, err)
	}

	select {
	case zoneID := <-ended:
		if zoneID != 7 {
			t.Errorf("end-of-track zone = %d, want 7", zoneID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("end-of-track never fired")
	}
	if p.State() != StateIdle {
		t.Errorf("state after track end = %v", p.State())
	}
}

func TestSimPlayerStopCancelsEndOfTrack(t *testing.T) {
	ended := make(chan int, 1)
	p := NewSimPlayer(1, func(zoneID int) { ended <- zoneID })

	if _, err := p.PlayURI(context.Background(), "music/t.flac", Metadata{Duration: 0.05}, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(context.Background(), "user"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ended:
		t.Error("stopped track still fired end-of-track")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSimPlayerNewPlaySupersedesOldTimer(t *testing.T) {
	ended := make(chan int, 2)
	p := NewSimPlayer(1, func(zoneID int) { ended <- zoneID })
	ctx := context.Background()

	if _, err := p.PlayURI(ctx, "music/short.flac", Metadata{Duration: 0.02}, 0); err != nil {
		t.Fatal(err)
	}
	// Replace immediately with a long track; the short track's timer must not
	// fire an end-of-track for it.
	if _, err := p.PlayURI(ctx, "music/long.flac", Metadata{Duration: 60}, 0); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ended:
		t.Error("superseded track fired end-of-track")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSimPlayerPauseResume(t *testing.T) {
	p := NewSimPlayer(1, nil)
	ctx := context.Background()

	if _, err := p.PlayURI(ctx, "music/t.flac", Metadata{Duration: 60}, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if p.State() != StatePaused {
		t.Errorf("state after pause = %v", p.State())
	}
	if err := p.Resume(ctx); err != nil {
		t.Fatal(err)
	}
	if p.State() != StatePlaying {
		t.Errorf("state after resume = %v", p.State())
	}
	_ = p.Stop(ctx, "test")
}

func TestSimPlayerDefaultDuration(t *testing.T) {
	p := NewSimPlayer(1, nil)
	if _, err := p.PlayURI(context.Background(), "music/t.flac", Metadata{}, 0); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	got := p.duration
	p.mu.Unlock()
	if got != simDefaultTrackSec {
		t.Errorf("default duration = %v, want %v", got, simDefaultTrackSec)
	}
	_ = p.Stop(context.Background(), "test")
}

type failingOutput struct{ typ string }

func (o failingOutput) Type() string { return o.typ }
func (o failingOutput) Dispatch(ctx context.Context, action string, payload any) error {
	return errors.New("transport down")
}

func TestDispatchOutputsToleratesFailures(t *testing.T) {
	good := NewMockOutput("local")
	DispatchOutputs(context.Background(), []Output{failingOutput{typ: "airplay-out"}, nil, good}, "start", nil)

	if got := good.Actions(); len(got) != 1 || got[0] != "start" {
		t.Errorf("healthy output skipped: %v", got)
	}
}
