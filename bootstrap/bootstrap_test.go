package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/bootstrap"
	"github.com/artpar/cmsdesk/config"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func writeBundle(t *testing.T, dir string) string {
	t.Helper()
	data, err := node.Parse([]byte(`{"title":"Hello","views":1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := content.Bundle{
		Version:    1,
		ExportedAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		Model: content.Model{
			ID:   "mdl_article",
			Name: "Article",
			Fields: []field.Definition{
				{Name: "title", Type: field.TypeString, Required: true},
				{Name: "views", Type: field.TypeNumber},
			},
		},
		Entries: []content.Entry{{ID: "ent_1", ModelID: "mdl_article", Data: data}},
	}

	path := filepath.Join(dir, "bundle.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create bundle: %v", err)
	}
	defer f.Close()
	if err := content.EncodeBundle(f, b, content.FormatJSON); err != nil {
		t.Fatalf("encode bundle: %v", err)
	}
	return path
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestBootstrap_Offline(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CMSDESK_DATABASE_PATH", filepath.Join(dir, "data", "cmsdesk.db"))

	a, err := bootstrap.New(context.Background(), bootstrap.Options{
		Offline:   writeBundle(t, dir),
		LogOutput: io.Discard,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if !a.Offline() {
		t.Error("expected offline mode")
	}
	if a.DB == nil || a.Editor == nil {
		t.Fatal("DB and Editor should be set")
	}
	if err := a.Login(context.Background(), "a@b.c", "pw"); !errors.Is(err, bootstrap.ErrOffline) {
		t.Errorf("Login offline error = %v, want ErrOffline", err)
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	status, body := do(t, srv, "GET", "/api/models", "")
	if status != http.StatusOK || !strings.Contains(body, `"mdl_article"`) {
		t.Fatalf("GET /api/models = %d %s", status, body)
	}

	status, body = do(t, srv, "POST", "/api/sessions", `{"entry_id":"ent_1"}`)
	if status != http.StatusCreated {
		t.Fatalf("open session = %d %s", status, body)
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	status, body = do(t, srv, "PUT", "/api/sessions/"+sess.ID+"/value", `{"path":"views","raw":"2"}`)
	if status != http.StatusOK {
		t.Fatalf("set value = %d %s", status, body)
	}
	status, body = do(t, srv, "POST", "/api/sessions/"+sess.ID+"/save", "")
	if status != http.StatusOK {
		t.Fatalf("save = %d %s", status, body)
	}

	// the snapshot lands in sqlite
	status, body = do(t, srv, "GET", "/api/entries/ent_1/history", "")
	if status != http.StatusOK || !strings.Contains(body, `"count":1`) {
		t.Errorf("history = %d %s", status, body)
	}

	status, _ = do(t, srv, "GET", "/health/ready", "")
	if status != http.StatusOK {
		t.Errorf("ready offline = %d, want 200", status)
	}
}

func TestBootstrap_OfflineMissingBundle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CMSDESK_DATABASE_PATH", filepath.Join(dir, "cmsdesk.db"))

	_, err := bootstrap.New(context.Background(), bootstrap.Options{
		Offline:   filepath.Join(dir, "missing.json"),
		LogOutput: io.Discard,
	})
	if err == nil {
		t.Fatal("expected error for missing bundle")
	}
}

func TestBootstrap_NoConfig(t *testing.T) {
	t.Setenv("CMSDESK_CMS_URL", "")
	_, err := bootstrap.New(context.Background(), bootstrap.Options{
		ConfigPath: filepath.Join(t.TempDir(), "cmsdesk.yaml"),
		LogOutput:  io.Discard,
	})
	if err == nil {
		t.Fatal("expected error without config")
	}
}

// fakeCMS answers the model list and login, and records bearer tokens.
type fakeCMS struct {
	mu     sync.Mutex
	tokens []string
	// rejectIssued makes the model list refuse the token login hands out.
	rejectIssued bool
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokens = append(f.tokens, r.Header.Get("Authorization"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/login":
		w.Write([]byte(`{"token":"tok_issued"}`))
	case "/models":
		if f.rejectIssued && r.Header.Get("Authorization") == "Bearer tok_issued" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"token revoked"}}`))
			return
		}
		w.Write([]byte(`{"data":[],"total":0}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"not found"}}`))
	}
}

func (f *fakeCMS) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func TestBootstrap_OnlineLoginStoresToken(t *testing.T) {
	cms := &fakeCMS{}
	upstream := httptest.NewServer(cms)
	defer upstream.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cmsdesk.yaml")
	dbPath := filepath.Join(dir, "cmsdesk.db")
	cfg := "cms:\n  url: " + upstream.URL + "\ndatabase:\n  path: " + dbPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	a, err := bootstrap.New(ctx, bootstrap.Options{ConfigPath: cfgPath, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Offline() {
		t.Fatal("expected online mode")
	}

	srv := httptest.NewServer(a.Handler())
	status, body := do(t, srv, "GET", "/health/ready", "")
	if status != http.StatusOK {
		t.Errorf("ready = %d %s", status, body)
	}
	if got := cms.last(); got != "" {
		t.Errorf("Authorization before login = %q, want none", got)
	}

	if err := a.Login(ctx, "editor@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	do(t, srv, "GET", "/health/ready", "")
	if got := cms.last(); got != "Bearer tok_issued" {
		t.Errorf("Authorization after login = %q", got)
	}
	srv.Close()
	a.Shutdown()

	// a restart picks up the stored token
	a, err = bootstrap.New(ctx, bootstrap.Options{ConfigPath: cfgPath, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New after login: %v", err)
	}
	defer a.Shutdown()
	if err := a.Client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if got := cms.last(); got != "Bearer tok_issued" {
		t.Errorf("Authorization after restart = %q", got)
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	a.Client.HealthCheck(ctx)
	if got := cms.last(); got != "" {
		t.Errorf("Authorization after logout = %q, want none", got)
	}
}

func TestBootstrap_LoginKeepsNoRejectedToken(t *testing.T) {
	cms := &fakeCMS{rejectIssued: true}
	upstream := httptest.NewServer(cms)
	defer upstream.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cmsdesk.yaml")
	cfg := "cms:\n  url: " + upstream.URL + "\ndatabase:\n  path: " + filepath.Join(dir, "cmsdesk.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	a, err := bootstrap.New(ctx, bootstrap.Options{ConfigPath: cfgPath, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	if err := a.Login(ctx, "editor@example.com", "secret"); err == nil {
		t.Fatal("Login should fail when the CMS rejects the issued token")
	}
	if tok, err := a.Settings.Get(ctx, bootstrap.TokenSetting); err == nil && tok != "" {
		t.Errorf("stored token = %q, want none", tok)
	}
	if err := a.Client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if got := cms.last(); got != "" {
		t.Errorf("Authorization after failed login = %q, want none", got)
	}
}

func TestBootstrap_MetricsEndpoint(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CMSDESK_DATABASE_PATH", filepath.Join(dir, "cmsdesk.db"))
	t.Setenv("CMSDESK_METRICS_ENABLED", "true")

	a, err := bootstrap.New(context.Background(), bootstrap.Options{
		Offline:   writeBundle(t, dir),
		LogOutput: io.Discard,
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()
	if a.Metrics == nil {
		t.Fatal("expected metrics collector")
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	do(t, srv, "POST", "/api/sessions", `{"entry_id":"ent_1"}`)
	status, body := do(t, srv, "GET", "/metrics", "")
	if status != http.StatusOK {
		t.Fatalf("GET /metrics = %d", status)
	}
	if !strings.Contains(body, "cmsdesk_sessions_open 1") {
		t.Errorf("metrics missing open session gauge:\n%s", body)
	}
}

func TestNewLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := bootstrap.NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected json output: %s", out)
	}

	buf.Reset()
	logger = bootstrap.NewLogger(config.LoggingConfig{Level: "bogus", Format: "console"}, &buf)
	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	out = buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Errorf("invalid level should fall back to warn: %q", out)
	}
	if strings.HasPrefix(out, "{") {
		t.Errorf("console format wrote json: %q", out)
	}
}
