package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/audiozone/zonecast/internal/alerts"
	"github.com/audiozone/zonecast/internal/events"
	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/playback"
	"github.com/audiozone/zonecast/internal/recents"
	"github.com/audiozone/zonecast/internal/zone"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	registry *zone.Registry
	playback *playback.Coordinator
	alerts   *alerts.Coordinator
	bus      *events.Bus
	history  *recents.History

	// alertLimiter keeps chime spam from hammering every zone at once.
	alertLimiter *rate.Limiter
}

// ZoneView is the JSON shape of one zone in list/get responses.
type ZoneView struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	InputMode models.InputMode `json:"input_mode"`
	QueueSize int              `json:"queue_size"`
	State     models.ZoneState `json:"state"`
}

func zoneView(zc *zone.Context) ZoneView {
	return ZoneView{
		ID:        zc.ID,
		Name:      zc.Name,
		InputMode: zc.InputMode(),
		QueueSize: zc.Queue.Len(),
		State:     zc.State(),
	}
}

func (h *Handlers) getZones(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	views := make([]ZoneView, 0, len(list))
	for _, zc := range list {
		views = append(views, zoneView(zc))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) getZone(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "zid")
	if err != nil {
		writeError(w, err)
		return
	}
	zc := h.registry.Get(id)
	if zc == nil {
		writeError(w, models.ErrNotFound("zone not found"))
		return
	}
	writeJSON(w, http.StatusOK, zoneView(zc))
}

func (h *Handlers) zoneCommand(fn func(r *http.Request, zoneID int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "zid")
		if err != nil {
			writeError(w, err)
			return
		}
		zc := h.registry.Get(id)
		if zc == nil {
			writeError(w, models.ErrNotFound("zone not found"))
			return
		}
		if err := fn(r, id); err != nil {
			writeError(w, err)
			return
		}
		// Re-fetch: the command may race with zone teardown.
		if zc = h.registry.Get(id); zc == nil {
			writeError(w, models.ErrNotFound("zone not found"))
			return
		}
		writeJSON(w, http.StatusOK, zoneView(zc))
	}
}

func (h *Handlers) play(r *http.Request, zoneID int) error {
	h.playback.Play(r.Context(), zoneID)
	return nil
}

func (h *Handlers) pause(r *http.Request, zoneID int) error {
	h.playback.Pause(r.Context(), zoneID)
	return nil
}

func (h *Handlers) stop(r *http.Request, zoneID int) error {
	h.playback.Stop(r.Context(), zoneID)
	return nil
}

func (h *Handlers) next(r *http.Request, zoneID int) error {
	h.playback.StepQueue(r.Context(), zoneID, 1)
	return nil
}

func (h *Handlers) prev(r *http.Request, zoneID int) error {
	h.playback.StepQueue(r.Context(), zoneID, -1)
	return nil
}

func (h *Handlers) setVolume(r *http.Request, zoneID int) error {
	var body struct {
		Level *int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Level == nil {
		return models.ErrBadRequest("level is required")
	}
	h.playback.SetVolume(r.Context(), zoneID, *body.Level)
	return nil
}

func (h *Handlers) setQueue(r *http.Request, zoneID int) error {
	var body struct {
		Items []models.QueueItem `json:"items"`
		Index int                `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.ErrBadRequest("invalid queue body")
	}
	h.playback.SetQueue(zoneID, body.Items, body.Index)
	return nil
}

// AlertRequest is the POST body for triggering an alert.
type AlertRequest struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Loop       bool   `json:"loop,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Volume     int    `json:"volume"`
}

func (h *Handlers) startAlert(r *http.Request, zoneID int) error {
	if !h.alertLimiter.Allow() {
		return models.ErrTooManyRequests("alert rate limit exceeded")
	}
	var body AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.ErrBadRequest("invalid alert body")
	}
	if body.URL == "" {
		return models.ErrBadRequest("url is required")
	}
	if body.Type == "" {
		body.Type = "chime"
	}
	media := zone.AlertMedia{
		URL:        body.URL,
		Title:      body.Title,
		Loop:       body.Loop,
		DurationMs: body.DurationMs,
	}
	if err := h.alerts.Start(r.Context(), zoneID, body.Type, media, body.Volume); err != nil {
		return models.ErrInternal(err.Error())
	}
	return nil
}

func (h *Handlers) stopAlert(r *http.Request, zoneID int) error {
	h.alerts.Stop(r.Context(), zoneID)
	return nil
}

func (h *Handlers) getRecents(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []recents.Entry{})
		return
	}
	writeJSON(w, http.StatusOK, h.history.Entries())
}
