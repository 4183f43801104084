// Package zone owns the set of live zone contexts. A Context is the unit of
// ownership for all playback-related mutable state of one zone; its identity
// is stable for the process lifetime and it is passed by reference between
// the coordinators.
package zone

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/audiozone/zonecast/internal/config"
	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/queue"
)

// Context is one zone's live state. State is mutated exclusively by the zone
// state store; Queue by the queue controller; Alert by the alerts
// coordinator.
type Context struct {
	ID     int
	Name   string
	Config config.ZoneConfig

	mu                sync.Mutex
	state             models.ZoneState
	inputMode         models.InputMode
	activeOutput      string
	activeOutputTypes []string
	lastBroadcastAt   time.Time

	Queue   *queue.Queue
	Player  player.Player
	Outputs []player.Output

	Alert *AlertState

	playSeq atomic.Uint64
}

// AlertState is present on a context only while an alert is playing.
type AlertState struct {
	Type       string
	Media      AlertMedia
	DurationMs *int64 // nil for looping alerts
	Timer      *time.Timer
	Snapshot   AlertSnapshot
}

// AlertMedia describes what an alert plays.
type AlertMedia struct {
	URL        string
	Title      string
	Loop       bool
	DurationMs int64 // 0 when unknown
}

// AlertSnapshot is the deep copy of everything alert playback overrides,
// captured at alert start and used verbatim to restore the zone.
type AlertSnapshot struct {
	Mode              models.PlayMode
	InputMode         models.InputMode
	ActiveOutput      string
	ActiveOutputTypes []string
	Volume            int
	Queue             queue.Snapshot
	StatePatch        models.StateDelta
}

// State returns the current broadcastable state record.
func (c *Context) State() models.ZoneState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the state record. Only the zone state store calls this.
func (c *Context) SetState(st models.ZoneState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
}

// InputMode returns which input currently drives playback.
func (c *Context) InputMode() models.InputMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputMode
}

// SetInputMode records which subsystem owns the zone. Pure assignment, no
// side effects.
func (c *Context) SetInputMode(mode models.InputMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputMode = mode
}

// ActiveOutput returns the currently live output transport name.
func (c *Context) ActiveOutput() (string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeOutput, append([]string(nil), c.activeOutputTypes...)
}

// SetActiveOutput records which output transport(s) are live.
func (c *Context) SetActiveOutput(output string, types []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeOutput = output
	c.activeOutputTypes = append([]string(nil), types...)
}

// LastBroadcastAt returns the time of the last state broadcast.
func (c *Context) LastBroadcastAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBroadcastAt
}

// SetLastBroadcastAt records a broadcast for throttling.
func (c *Context) SetLastBroadcastAt(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBroadcastAt = t
}

// NextPlaySeq invalidates all in-flight playback resolutions for this zone
// and returns the new sequence.
func (c *Context) NextPlaySeq() uint64 {
	return c.playSeq.Add(1)
}

// PlaySeq returns the current playback sequence.
func (c *Context) PlaySeq() uint64 {
	return c.playSeq.Load()
}

// Registry owns all live zone contexts, keyed by zone id.
type Registry struct {
	mu    sync.RWMutex
	zones map[int]*Context
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{zones: make(map[int]*Context)}
}

// Create builds a zone context from configuration and registers it.
// An existing context with the same id is replaced.
func (r *Registry) Create(cfg config.ZoneConfig, p player.Player, outputs []player.Output) *Context {
	ctx := &Context{
		ID:     cfg.ID,
		Name:   cfg.Name,
		Config: cfg,
		state: models.ZoneState{
			Mode:           models.ModeStop,
			Volume:         cfg.Volume,
			QIndex:         -1,
			QueueAuthority: models.AuthorityLocal,
		},
		inputMode: models.InputNone,
		Queue:     queue.New(),
		Player:    p,
		Outputs:   outputs,
	}
	r.mu.Lock()
	r.zones[cfg.ID] = ctx
	r.mu.Unlock()
	return ctx
}

// Get returns the context for a zone id, or nil. Callers must tolerate nil:
// commands may race with zone teardown.
func (r *Registry) Get(id int) *Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zones[id]
}

// Remove destroys a zone context.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.zones, id)
}

// List returns all contexts ordered by zone id.
func (r *Registry) List() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Context, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	// insertion sort, the zone count is small
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID > out[j].ID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Len returns the number of live zones.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}
