// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadObserver is told about every reload attempt.
type ReloadObserver interface {
	RecordReload(err error, at time.Time)
}

// Holder provides thread-safe access to configuration with hot reload support.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	observer ReloadObserver
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHolder creates a new config holder and loads the initial configuration.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := &Holder{
		config: cfg,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	return h, nil
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload reloads the configuration from disk.
// Returns error if loading fails (keeps old config).
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	newCfg, err := Load(h.path)
	h.observe(err)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	listeners := slices.Clone(h.onChange)
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)

	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Observe attaches a reload observer such as the metrics collector.
func (h *Holder) Observe(o ReloadObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = o
}

func (h *Holder) observe(err error) {
	h.mu.RLock()
	o := h.observer
	h.mu.RUnlock()
	if o != nil {
		o.RecordReload(err, time.Now())
	}
}

// WatchFile starts watching the config file for changes.
// Changes trigger automatic reload.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// Only react to our config file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if old.CMS.Token != new.CMS.Token {
		h.logger.Info().Msg("cms token changed")
	}

	if !maps.Equal(old.CMS.Headers, new.CMS.Headers) {
		h.logger.Info().Int("count", len(new.CMS.Headers)).Msg("cms headers changed")
	}

	for _, f := range NonReloadableFields() {
		if fieldValue(old, f) != fieldValue(new, f) {
			h.logger.Warn().Str("field", f).Msg("change requires a restart")
		}
	}
}

func fieldValue(c *Config, name string) string {
	switch name {
	case "server.host":
		return c.Server.Host
	case "server.port":
		return fmt.Sprint(c.Server.Port)
	case "cms.url":
		return c.CMS.URL
	case "database.path":
		return c.Database.Path
	case "cms.timeout":
		return c.CMS.Timeout.String()
	case "editor.history_limit":
		return fmt.Sprint(c.Editor.HistoryLimit)
	case "editor.expand_depth":
		return fmt.Sprint(c.Editor.ExpandDepth)
	case "editor.page_size":
		return fmt.Sprint(c.Editor.PageSize)
	case "metrics.enabled":
		return fmt.Sprint(c.Metrics.Enabled)
	case "metrics.path":
		return c.Metrics.Path
	}
	return ""
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"cms.token",
		"cms.headers",
		"logging.level",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"cms.url",
		"cms.timeout",
		"database.path",
		"editor.history_limit",
		"editor.expand_depth",
		"editor.page_size",
		"metrics.enabled",
		"metrics.path",
	}
}
