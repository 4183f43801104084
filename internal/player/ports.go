// Package player defines the narrow ports the zone core drives: the per-zone
// playback session driver, output transports, content resolution, provider
// inputs and the audio session manager. Mock implementations back the tests;
// SimPlayer backs the daemon's simulated playback engine.
package player

import (
	"context"
	"time"
)

// Metadata describes what a session is playing.
type Metadata struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	CoverURL string  `json:"coverurl"`
	Station  string  `json:"station"`
	Duration float64 `json:"duration"`
}

// PlaybackSource is an opaque handle to a resolved provider stream.
type PlaybackSource struct {
	URI        string
	Label      string
	OutputOnly bool
}

// Session is a live playback session handle.
type Session struct {
	ID        string
	URI       string
	StartedAt time.Time
}

// PlayerState is the driver-reported transport state.
type PlayerState string

const (
	StateIdle    PlayerState = "idle"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
)

// Player is the per-zone playback session driver.
type Player interface {
	PlayURI(ctx context.Context, uri string, meta Metadata, startAt float64) (*Session, error)
	PlayExternal(ctx context.Context, label string, src PlaybackSource, meta Metadata, startAt float64) (*Session, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context, reason string) error
	SetVolume(ctx context.Context, level int) error
	State() PlayerState
	UpdateTiming(elapsed, duration float64)
	SetEndGuardMs(ms int)
}

// Output is one output transport attached to a zone.
type Output interface {
	Type() string
	Dispatch(ctx context.Context, action string, payload any) error
}

// ReadinessProber is optionally implemented by outputs that can report
// whether they are ready to accept playback. Outputs without the capability
// are treated as immediately ready.
type ReadinessProber interface {
	IsReady() bool
}

// ResolveRequest asks the content resolver to turn an audiopath into a
// playable source.
type ResolveRequest struct {
	ZoneID    int
	ZoneName  string
	AudioPath string
}

// ResolvedSource is the content resolver's answer. A nil Source with
// OutputOnly=false means the audiopath should be handed to the player as-is.
type ResolvedSource struct {
	Source     *PlaybackSource
	OutputOnly bool
	Metadata   *Metadata
}

// ContentResolver resolves audiopaths into playback sources and metadata.
type ContentResolver interface {
	ResolvePlaybackSource(ctx context.Context, req ResolveRequest) (ResolvedSource, error)
	ResolveMetadata(ctx context.Context, target string) (*Metadata, error)
}

// InputsPort is the provider input boundary (AirPlay, Spotify, line-in, ...).
type InputsPort interface {
	StartStreamForAudiopath(ctx context.Context, zoneID int, zoneName, audiopath string, opts map[string]any) (ResolvedSource, error)
	PlaybackSourceForURI(uri string) (*PlaybackSource, bool)
	PlaybackSource(zoneID int) (*PlaybackSource, bool)
	MarkSessionActive(zoneID int)
}

// SessionMetadata is the composed now-playing metadata pushed to an audio
// session.
type SessionMetadata struct {
	Title     string
	Artist    string
	Album     string
	CoverURL  string
	Station   string
	AudioPath string
}

// AudioSession is one active audio session for a zone.
type AudioSession interface {
	Metadata() SessionMetadata
}

// SessionManager is the audio session layer boundary.
type SessionManager interface {
	Session(zoneID int) (AudioSession, bool)
	UpdateTiming(zoneID int, elapsed, duration float64)
	UpdateMetadata(zoneID int, md SessionMetadata)
	SetPreferredOutputSettings(zoneID int, settings map[string]any)
	SetHTTPPreferences(zoneID int, prefs map[string]any)
	SetInputPreferences(zoneID int, prefs map[string]any)
}
