package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the zones YAML file and invokes onReload with the freshly
// parsed configuration whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*ZonesConfig)
}

// NewWatcher starts watching the given zones file. A nil return with no error
// means file watching is unavailable on this platform; the caller keeps the
// startup config.
func NewWatcher(path string, onReload func(*ZonesConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: could not create fsnotify watcher", "err", err)
		return nil, nil
	}
	// Watch the directory, not the file: editors replace files via rename.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, watcher: fw, onReload: onReload}
	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				cfg, err := LoadZones(w.path)
				if err != nil {
					slog.Warn("config: failed to reload zones", "path", w.path, "err", err)
					continue
				}
				slog.Info("config: zones reloaded", "path", w.path, "zones", len(cfg.Zones))
				w.onReload(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watch error", "err", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w == nil || w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
