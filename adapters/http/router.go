// Package http provides the HTTP router for the local API.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/cmsdesk/adapters/metrics"
)

// HealthChecker reports whether the CMS is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	cms HealthChecker
}

// NewHealthHandler creates a new health handler. cms may be nil when
// working offline.
func NewHealthHandler(cms HealthChecker) *HealthHandler {
	return &HealthHandler{cms: cms}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness checks that the CMS answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.cms != nil {
		if err := h.cms.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// RouterConfig holds the router's handlers and options.
type RouterConfig struct {
	API         http.Handler       // local API, mounted at /api
	Health      *HealthHandler     // defaults to a handler without a CMS check
	Metrics     *metrics.Collector // optional
	MetricsPath string             // default: /metrics
	// MetricsHandler serves MetricsPath; default promhttp.Handler().
	MetricsHandler http.Handler
	Version        string
	Logger         zerolog.Logger
}

// NewRouter creates the main HTTP router.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.Health == nil {
		cfg.Health = NewHealthHandler(nil)
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(cfg.Logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
		if cfg.MetricsHandler == nil {
			cfg.MetricsHandler = promhttp.Handler()
		}
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	}

	// Health endpoints
	r.Get("/health", cfg.Health.Liveness)
	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)

	version := VersionResponse{Version: cfg.Version, Service: "cmsdesk"}
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(version)
	})

	if cfg.API != nil {
		r.Mount("/api", cfg.API)
	}

	return r
}

// internal reports paths left out of request logs and metrics.
func internal(path, metricsPath string) bool {
	return strings.HasPrefix(path, "/health") || path == metricsPath
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internal(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.ObserveHTTP(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if internal(r.URL.Path, metricsPath) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
