package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockPlayer is a scriptable Player for tests. It records every call and can
// be told to fail the next play request.
type MockPlayer struct {
	mu sync.Mutex

	state    PlayerState
	volume   int
	sessions int

	Calls      []string
	StopReason string
	LastURI    string
	LastMeta   Metadata

	FailNextPlay bool
}

// NewMockPlayer returns an idle mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{state: StateIdle}
}

func (m *MockPlayer) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *MockPlayer) PlayURI(ctx context.Context, uri string, meta Metadata, startAt float64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("play:" + uri)
	if m.FailNextPlay {
		m.FailNextPlay = false
		return nil, errors.New("mock: play failed")
	}
	m.sessions++
	m.state = StatePlaying
	m.LastURI = uri
	m.LastMeta = meta
	return &Session{ID: fmt.Sprintf("mock-%d", m.sessions), URI: uri}, nil
}

func (m *MockPlayer) PlayExternal(ctx context.Context, label string, src PlaybackSource, meta Metadata, startAt float64) (*Session, error) {
	return m.PlayURI(ctx, src.URI, meta, startAt)
}

func (m *MockPlayer) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("pause")
	if m.state == StatePlaying {
		m.state = StatePaused
	}
	return nil
}

func (m *MockPlayer) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("resume")
	if m.state == StatePaused {
		m.state = StatePlaying
	}
	return nil
}

func (m *MockPlayer) Stop(ctx context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("stop:" + reason)
	m.StopReason = reason
	m.state = StateIdle
	return nil
}

func (m *MockPlayer) SetVolume(ctx context.Context, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("volume:%d", level))
	m.volume = level
	return nil
}

func (m *MockPlayer) State() PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Volume returns the last volume set on the mock.
func (m *MockPlayer) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockPlayer) UpdateTiming(elapsed, duration float64) {}

func (m *MockPlayer) SetEndGuardMs(ms int) {}

var _ Player = (*MockPlayer)(nil)

// MockOutput is a scriptable Output for tests. It carries no readiness probe
// and is therefore treated as immediately ready.
type MockOutput struct {
	mu  sync.Mutex
	typ string

	Dispatched []string
}

// NewMockOutput returns an output without a readiness probe.
func NewMockOutput(typ string) *MockOutput {
	return &MockOutput{typ: typ}
}

func (o *MockOutput) Type() string { return o.typ }

func (o *MockOutput) Dispatch(ctx context.Context, action string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Dispatched = append(o.Dispatched, action)
	return nil
}

// Actions returns a copy of the dispatched action log.
func (o *MockOutput) Actions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.Dispatched...)
}

var _ Output = (*MockOutput)(nil)

// MockProbedOutput is a MockOutput that also exposes a readiness probe.
type MockProbedOutput struct {
	MockOutput
	readyMu sync.Mutex
	ready   bool
}

// NewMockProbedOutput returns an output exposing a readiness probe.
func NewMockProbedOutput(typ string, ready bool) *MockProbedOutput {
	o := &MockProbedOutput{ready: ready}
	o.typ = typ
	return o
}

// SetReady flips the probe result.
func (o *MockProbedOutput) SetReady(ready bool) {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	o.ready = ready
}

func (o *MockProbedOutput) IsReady() bool {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	return o.ready
}

var _ ReadinessProber = (*MockProbedOutput)(nil)

// MockResolver resolves every audiopath to itself unless scripted otherwise.
type MockResolver struct {
	mu       sync.Mutex
	Sources  map[string]ResolvedSource
	FailAll  bool
	Resolved []string
}

func NewMockResolver() *MockResolver {
	return &MockResolver{Sources: make(map[string]ResolvedSource)}
}

func (r *MockResolver) ResolvePlaybackSource(ctx context.Context, req ResolveRequest) (ResolvedSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resolved = append(r.Resolved, req.AudioPath)
	if r.FailAll {
		return ResolvedSource{}, errors.New("mock: resolution failed")
	}
	if rs, ok := r.Sources[req.AudioPath]; ok {
		return rs, nil
	}
	return ResolvedSource{}, nil
}

func (r *MockResolver) ResolveMetadata(ctx context.Context, target string) (*Metadata, error) {
	return nil, nil
}

var _ ContentResolver = (*MockResolver)(nil)

// MockSession is a scriptable AudioSession.
type MockSession struct {
	mu sync.Mutex
	md SessionMetadata
}

func (s *MockSession) Metadata() SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.md
}

func (s *MockSession) setMetadata(md SessionMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.md = md
}

// MockSessionManager tracks sessions and records pushes for assertions.
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[int]*MockSession

	TimingPushes   []TimingPush
	MetadataPushes []SessionMetadata
}

// TimingPush is one recorded UpdateTiming call.
type TimingPush struct {
	ZoneID   int
	Elapsed  float64
	Duration float64
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[int]*MockSession)}
}

// AddSession registers an active session for a zone.
func (m *MockSessionManager) AddSession(zoneID int) *MockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &MockSession{}
	m.sessions[zoneID] = s
	return s
}

func (m *MockSessionManager) Session(zoneID int) (AudioSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[zoneID]
	if !ok {
		return nil, false
	}
	return s, true
}

func (m *MockSessionManager) UpdateTiming(zoneID int, elapsed, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TimingPushes = append(m.TimingPushes, TimingPush{zoneID, elapsed, duration})
}

func (m *MockSessionManager) UpdateMetadata(zoneID int, md SessionMetadata) {
	m.mu.Lock()
	s, ok := m.sessions[zoneID]
	m.MetadataPushes = append(m.MetadataPushes, md)
	m.mu.Unlock()
	if ok {
		s.setMetadata(md)
	}
}

func (m *MockSessionManager) SetPreferredOutputSettings(zoneID int, settings map[string]any) {}
func (m *MockSessionManager) SetHTTPPreferences(zoneID int, prefs map[string]any)           {}
func (m *MockSessionManager) SetInputPreferences(zoneID int, prefs map[string]any)          {}

var _ SessionManager = (*MockSessionManager)(nil)

// MockInputs is a minimal InputsPort for tests.
type MockInputs struct {
	mu     sync.Mutex
	Active []int
}

func NewMockInputs() *MockInputs { return &MockInputs{} }

func (m *MockInputs) StartStreamForAudiopath(ctx context.Context, zoneID int, zoneName, audiopath string, opts map[string]any) (ResolvedSource, error) {
	return ResolvedSource{Source: &PlaybackSource{URI: audiopath, Label: zoneName}}, nil
}

func (m *MockInputs) PlaybackSourceForURI(uri string) (*PlaybackSource, bool) {
	return &PlaybackSource{URI: uri}, true
}

func (m *MockInputs) PlaybackSource(zoneID int) (*PlaybackSource, bool) { return nil, false }

func (m *MockInputs) MarkSessionActive(zoneID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Active = append(m.Active, zoneID)
}

var _ InputsPort = (*MockInputs)(nil)
