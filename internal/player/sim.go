package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const simDefaultTrackSec = 30

// SimPlayer is a simulated playback driver for development (--sim mode).
// It keeps transport state in memory and fires the end-of-track callback
// after each track's duration elapses, so queue progression can be exercised
// without a real streaming engine.
type SimPlayer struct {
	mu sync.Mutex

	zoneID     int
	onTrackEnd func(zoneID int)

	state      PlayerState
	volume     int
	elapsed    float64
	duration   float64
	endGuardMs int

	seq       int
	timer     *time.Timer
	remaining time.Duration
	sessions  int
}

// NewSimPlayer creates a simulated player for one zone. onTrackEnd is invoked
// from a timer goroutine when a simulated track finishes.
func NewSimPlayer(zoneID int, onTrackEnd func(zoneID int)) *SimPlayer {
	return &SimPlayer{
		zoneID:     zoneID,
		onTrackEnd: onTrackEnd,
		state:      StateIdle,
	}
}

func (p *SimPlayer) PlayURI(ctx context.Context, uri string, meta Metadata, startAt float64) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelTimerLocked()
	p.seq++
	p.sessions++
	p.state = StatePlaying
	p.elapsed = startAt
	p.duration = meta.Duration
	if p.duration <= 0 {
		p.duration = simDefaultTrackSec
	}

	remain := time.Duration((p.duration - p.elapsed) * float64(time.Second))
	remain -= time.Duration(p.endGuardMs) * time.Millisecond
	if remain < 0 {
		remain = 0
	}
	p.armTimerLocked(remain)

	slog.Debug("sim player: playing", "zone", p.zoneID, "uri", uri, "duration", p.duration)
	return &Session{ID: fmt.Sprintf("sim-%d-%d", p.zoneID, p.sessions), URI: uri, StartedAt: time.Now()}, nil
}

func (p *SimPlayer) PlayExternal(ctx context.Context, label string, src PlaybackSource, meta Metadata, startAt float64) (*Session, error) {
	return p.PlayURI(ctx, src.URI, meta, startAt)
}

func (p *SimPlayer) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return nil
	}
	p.state = StatePaused
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return nil
}

func (p *SimPlayer) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused {
		return nil
	}
	p.state = StatePlaying
	p.armTimerLocked(p.remaining)
	return nil
}

func (p *SimPlayer) Stop(ctx context.Context, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelTimerLocked()
	p.seq++
	p.state = StateIdle
	p.elapsed = 0
	slog.Debug("sim player: stopped", "zone", p.zoneID, "reason", reason)
	return nil
}

func (p *SimPlayer) SetVolume(ctx context.Context, level int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = level
	return nil
}

func (p *SimPlayer) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *SimPlayer) UpdateTiming(elapsed, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elapsed = elapsed
	if duration > 0 {
		p.duration = duration
	}
}

func (p *SimPlayer) SetEndGuardMs(ms int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endGuardMs = ms
}

// armTimerLocked schedules the end-of-track callback. The sequence counter
// makes a stale timer (from a superseded play) a no-op.
func (p *SimPlayer) armTimerLocked(remain time.Duration) {
	p.remaining = remain
	seq := p.seq
	p.timer = time.AfterFunc(remain, func() {
		p.mu.Lock()
		stale := p.seq != seq
		if !stale {
			p.state = StateIdle
			p.timer = nil
		}
		p.mu.Unlock()
		if stale {
			return
		}
		if p.onTrackEnd != nil {
			p.onTrackEnd(p.zoneID)
		}
	})
}

func (p *SimPlayer) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

var _ Player = (*SimPlayer)(nil)
