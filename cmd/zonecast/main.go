// Command zonecast is the multi-zone playback orchestration daemon.
// Zones are described by zones.yaml in the config directory; runtime state
// is persisted alongside it and restored on startup.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/audiozone/zonecast/internal/alerts"
	"github.com/audiozone/zonecast/internal/api"
	"github.com/audiozone/zonecast/internal/config"
	"github.com/audiozone/zonecast/internal/events"
	"github.com/audiozone/zonecast/internal/models"
	"github.com/audiozone/zonecast/internal/playback"
	"github.com/audiozone/zonecast/internal/player"
	"github.com/audiozone/zonecast/internal/recents"
	"github.com/audiozone/zonecast/internal/state"
	"github.com/audiozone/zonecast/internal/zeroconf"
	"github.com/audiozone/zonecast/internal/zone"
)

func main() {
	var (
		addr   = flag.String("addr", ":8096", "HTTP listen address")
		cfgDir = flag.String("config-dir", "", "config directory (default: ~/.config/zonecast)")
		debug  = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "zonecast")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Zone configuration
	zonesPath := filepath.Join(*cfgDir, "zones.yaml")
	zonesCfg, err := config.LoadZones(zonesPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no zones.yaml found, using default single-zone config", "path", zonesPath)
			zonesCfg = config.DefaultZones()
		} else {
			slog.Error("cannot load zone config", "path", zonesPath, "err", err)
			os.Exit(1)
		}
	}

	// Runtime state store
	store := config.NewJSONStore(*cfgDir)

	// Event bus
	bus := events.NewBus()

	// Zone registry. Each zone gets a simulated player whose end-of-track
	// events drive queue advancement; pbRef is set once the playback
	// coordinator exists, before any track can end.
	registry := zone.NewRegistry()
	var pbRef *playback.Coordinator
	for _, zc := range zonesCfg.Zones {
		outputs := make([]player.Output, 0, len(zc.Outputs))
		for _, oc := range zc.Outputs {
			outputs = append(outputs, player.NewLogOutput(oc.Type))
		}
		p := player.NewSimPlayer(zc.ID, func(zoneID int) {
			if pbRef != nil {
				pbRef.HandleEndOfTrack(context.Background(), zoneID)
			}
		})
		registry.Create(zc, p, outputs)
	}

	// State store and coordinators
	zoneStates := state.New(registry, bus)
	zoneStates.SetGroupSync(state.NewGroupMirror(registry, zoneStates, bus))

	pb := playback.New(registry, zoneStates, player.PassthroughResolver{}, bus)
	pbRef = pb

	history := recents.New(*cfgDir, bus.NotifyRecentlyPlayedChanged)
	pb.SetRecents(history)

	al := alerts.New(registry, zoneStates, pb)

	// Restore persisted runtime state. Playback never survives a restart, so
	// every zone comes back stopped regardless of the mode it was saved in.
	if snap, err := store.Load(); err != nil {
		slog.Warn("cannot load persisted state, starting fresh", "err", err)
	} else {
		for _, zs := range snap.Zones {
			zc := registry.Get(zs.ID)
			if zc == nil {
				continue
			}
			st := zs.State
			st.Mode = models.ModeStop
			st.Time = 0
			zc.SetState(st)
			zc.Queue.SetItems(zs.Queue, zs.QueueIndex)
		}
	}

	// Persist a snapshot after every committed state change. The JSON store
	// debounces, so per-patch saves are cheap.
	zoneStates.SetObserver(func(zoneID int, delta models.StateDelta, committed models.ZoneState) {
		if err := store.Save(snapshotOf(registry)); err != nil {
			slog.Warn("state persist failed", "err", err)
		}
	})

	// Watch zones.yaml for edits. New zones are added live; renames take
	// effect immediately. Removing a zone requires a restart.
	watcher, err := config.NewWatcher(zonesPath, func(cfg *config.ZonesConfig) {
		for _, zc := range cfg.Zones {
			if existing := registry.Get(zc.ID); existing != nil {
				existing.Name = zc.Name
				continue
			}
			outputs := make([]player.Output, 0, len(zc.Outputs))
			for _, oc := range zc.Outputs {
				outputs = append(outputs, player.NewLogOutput(oc.Type))
			}
			p := player.NewSimPlayer(zc.ID, func(zoneID int) {
				pbRef.HandleEndOfTrack(context.Background(), zoneID)
			})
			registry.Create(zc, p, outputs)
			slog.Info("zone added from config reload", "zone", zc.ID, "name", zc.Name)
		}
	})
	if err != nil {
		slog.Warn("config watcher unavailable", "err", err)
	} else {
		defer watcher.Close()
	}

	// Zeroconf mDNS registration
	hostname, _ := os.Hostname()
	port := 8096
	if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	zcSvc := zeroconf.New(hostname, port, registry.Len())
	go func() {
		if err := zcSvc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	// HTTP server
	router := api.NewRouter(registry, pb, al, bus, history)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("zonecast listening", "addr", *addr, "zones", registry.Len(), "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Stop any playing zones so outputs get a clean stop dispatch.
	for _, zc := range registry.List() {
		if zc.State().Mode == models.ModePlay {
			pb.Stop(shutCtx, zc.ID)
		}
	}

	// Flush pending writes
	history.Flush()
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush state", "err", err)
	}

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// snapshotOf captures the persistable runtime state of every zone.
func snapshotOf(registry *zone.Registry) *config.Snapshot {
	zones := registry.List()
	snap := &config.Snapshot{Zones: make([]config.ZoneSnapshot, 0, len(zones))}
	for _, zc := range zones {
		snap.Zones = append(snap.Zones, config.ZoneSnapshot{
			ID:         zc.ID,
			State:      zc.State(),
			Queue:      zc.Queue.Items(),
			QueueIndex: zc.Queue.CurrentIndex(),
		})
	}
	return snap
}
