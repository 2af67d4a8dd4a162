// Package bootstrap wires configuration, storage and the CMS client into the
// editor, and runs the local HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/artpar/cmsdesk/adapters/clock"
	apihttp "github.com/artpar/cmsdesk/adapters/http"
	"github.com/artpar/cmsdesk/adapters/http/admin"
	"github.com/artpar/cmsdesk/adapters/idgen"
	"github.com/artpar/cmsdesk/adapters/memory"
	"github.com/artpar/cmsdesk/adapters/metrics"
	"github.com/artpar/cmsdesk/adapters/remote"
	"github.com/artpar/cmsdesk/adapters/sqlite"
	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/config"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// TokenSetting is the settings key holding the token stored by login.
const TokenSetting = "cms.token"

// ErrOffline is returned by operations that need a CMS in offline mode.
var ErrOffline = errors.New("not available offline")

// Options selects how the application starts.
type Options struct {
	// ConfigPath is the config file. Environment variables are used when it
	// does not exist.
	ConfigPath string
	// Offline is a bundle file to edit without a CMS. Edits stay in memory.
	Offline string
	// LogOutput receives log lines; default os.Stderr.
	LogOutput io.Writer
	// Registry receives metrics; default the global prometheus registry.
	Registry *prometheus.Registry
	Version  string
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	Settings   *sqlite.SettingsStore
	Client     *remote.Client // nil offline
	Models     ports.ModelStore
	Entries    ports.EntryStore
	Editor     *app.Editor
	Metrics    *metrics.Collector // nil when disabled
	HTTPServer *http.Server

	opts   Options
	holder *config.Holder
}

// New loads configuration and builds the application.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	logger := NewLogger(cfg.Logging, opts.LogOutput)

	a := &App{
		Logger: logger,
		Config: cfg,
		opts:   opts,
	}

	if cfg.Metrics.Enabled {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
		} else {
			a.Metrics = metrics.New()
		}
	}

	if err := a.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := a.initStores(ctx); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("init stores: %w", err)
	}

	a.Editor = app.NewEditor(app.EditorDeps{
		Models:       a.Models,
		Entries:      a.Entries,
		Snapshots:    sqlite.NewSnapshotStore(a.DB),
		Clock:        clock.Real{},
		IDs:          idgen.Short{},
		Logger:       logger,
		Metrics:      a.Metrics,
		HistoryLimit: cfg.Editor.HistoryLimit,
		ExpandDepth:  cfg.Editor.ExpandDepth,
	})

	logger.Debug().Bool("offline", a.Offline()).Msg("cmsdesk initialized")
	return a, nil
}

func loadConfig(opts Options) (*config.Config, error) {
	if opts.Offline != "" {
		return config.Offline(), nil
	}
	return config.LoadWithFallback(opts.ConfigPath)
}

// Offline reports whether the app edits a bundle instead of a CMS.
func (a *App) Offline() bool { return a.Client == nil }

func (a *App) initDatabase(ctx context.Context) error {
	path := a.Config.Database.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Settings = sqlite.NewSettingsStore(db)
	a.Logger.Debug().Str("path", path).Strs("migrations", applied).Msg("database initialized")
	return nil
}

func (a *App) initStores(ctx context.Context) error {
	if a.opts.Offline != "" {
		b, err := readBundle(a.opts.Offline)
		if err != nil {
			return err
		}
		a.Models, a.Entries = memory.FromBundle(b, idgen.Short{Prefix: "ent_"}, clock.Real{})
		a.Logger.Info().
			Str("bundle", a.opts.Offline).
			Str("model", b.Model.ID).
			Int("entries", len(b.Entries)).
			Msg("working offline")
		return nil
	}

	token, err := a.token(ctx, a.Config)
	if err != nil {
		return err
	}

	a.Client = remote.NewClient(remote.ClientConfig{
		BaseURL: a.Config.CMS.URL,
		Token:   token,
		Timeout: a.Config.CMS.Timeout,
		Headers: a.Config.CMS.Headers,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	})
	a.Models = remote.NewModelStore(a.Client)
	a.Entries = remote.NewEntryStore(a.Client)
	return nil
}

// token prefers the configured token over the one stored by login.
func (a *App) token(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.CMS.Token != "" {
		return cfg.CMS.Token, nil
	}
	stored, err := a.Settings.Get(ctx, TokenSetting)
	if errors.Is(err, ports.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read stored token: %w", err)
	}
	return stored, nil
}

func readBundle(name string) (content.Bundle, error) {
	f, err := os.Open(name)
	if err != nil {
		return content.Bundle{}, err
	}
	defer f.Close()

	b, err := content.DecodeBundle(f, content.FormatFromPath(name))
	if err != nil {
		return content.Bundle{}, fmt.Errorf("read bundle %s: %w", name, err)
	}
	return b, nil
}

// Login exchanges credentials for a token, stores it and starts using it.
func (a *App) Login(ctx context.Context, email, password string) error {
	if a.Offline() {
		return fmt.Errorf("login: %w", ErrOffline)
	}
	token, err := remote.Login(ctx, a.Client, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	// the token is kept only once the CMS accepts it
	if err := a.Client.WithToken(token).HealthCheck(ctx); err != nil {
		return fmt.Errorf("login: issued token rejected: %w", err)
	}
	if err := a.Settings.Set(ctx, TokenSetting, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	a.Client.SetAuth(token, a.Config.CMS.Headers)
	a.Logger.Info().Str("cms", a.Config.CMS.URL).Msg("logged in")
	return nil
}

// Logout forgets the stored token.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Settings.Delete(ctx, TokenSetting); err != nil && !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	if a.Client != nil {
		a.Client.SetAuth(a.Config.CMS.Token, a.Config.CMS.Headers)
	}
	return nil
}

// ----------------------------------------------------------------------------
// HTTP server
// ----------------------------------------------------------------------------

// Handler returns the HTTP handler serving the local API, health checks and
// metrics.
func (a *App) Handler() http.Handler {
	api := admin.NewHandler(admin.Deps{
		Editor:   a.Editor,
		Logger:   a.Logger,
		PageSize: a.Config.Editor.PageSize,
	})

	var health *apihttp.HealthHandler
	if a.Client != nil {
		health = apihttp.NewHealthHandler(a.Client)
	}

	var metricsHandler http.Handler
	if a.Metrics != nil && a.opts.Registry != nil {
		metricsHandler = promhttp.HandlerFor(a.opts.Registry, promhttp.HandlerOpts{})
	}

	return apihttp.NewRouter(apihttp.RouterConfig{
		API:            api.Router(),
		Health:         health,
		Metrics:        a.Metrics,
		MetricsPath:    a.Config.Metrics.Path,
		MetricsHandler: metricsHandler,
		Version:        a.opts.Version,
		Logger:         a.Logger,
	})
}

func (a *App) initHTTPServer() {
	a.HTTPServer = &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      a.Handler(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// watchConfig reloads the config file on change and on SIGHUP.
func (a *App) watchConfig() {
	path := a.opts.ConfigPath
	if a.Offline() || path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config reload disabled")
		return
	}
	if a.Metrics != nil {
		holder.Observe(a.Metrics)
	}
	holder.OnChange(a.applyConfig)
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to watch config file")
	}
	holder.WatchSignals()
	a.holder = holder
}

// applyConfig applies the reloadable settings of cfg.
func (a *App) applyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if a.Client != nil {
		token, err := a.token(context.Background(), cfg)
		if err != nil {
			a.Logger.Error().Err(err).Msg("keeping previous token")
			return
		}
		a.Client.SetAuth(token, cfg.CMS.Headers)
	}
}

// Run starts the HTTP server and blocks until ctx ends, a signal arrives or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	a.initHTTPServer()
	a.watchConfig()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Bool("offline", a.Offline()).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Debug().Msg("shutdown complete")
	return nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
