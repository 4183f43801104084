package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/audiozone/zonecast/internal/alerts"
	"github.com/audiozone/zonecast/internal/events"
	"github.com/audiozone/zonecast/internal/playback"
	"github.com/audiozone/zonecast/internal/recents"
	"github.com/audiozone/zonecast/internal/zone"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(registry *zone.Registry, pb *playback.Coordinator, al *alerts.Coordinator, bus *events.Bus, history *recents.History) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{
		registry:     registry,
		playback:     pb,
		alerts:       al,
		bus:          bus,
		history:      history,
		alertLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}

	// Zones
	r.Get("/api/zones", h.getZones)
	r.Get("/api/zones/{zid}", h.getZone)

	// Transport commands
	r.Post("/api/zones/{zid}/play", h.zoneCommand(h.play))
	r.Post("/api/zones/{zid}/pause", h.zoneCommand(h.pause))
	r.Post("/api/zones/{zid}/stop", h.zoneCommand(h.stop))
	r.Post("/api/zones/{zid}/next", h.zoneCommand(h.next))
	r.Post("/api/zones/{zid}/prev", h.zoneCommand(h.prev))
	r.Post("/api/zones/{zid}/volume", h.zoneCommand(h.setVolume))
	r.Post("/api/zones/{zid}/queue", h.zoneCommand(h.setQueue))

	// Alerts
	r.Post("/api/zones/{zid}/alert", h.zoneCommand(h.startAlert))
	r.Delete("/api/zones/{zid}/alert", h.zoneCommand(h.stopAlert))

	// History
	r.Get("/api/recents", h.getRecents)

	// Event feeds
	r.Get("/api/subscribe", h.sseEvents)
	r.Get("/api/ws", h.wsEvents)

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
