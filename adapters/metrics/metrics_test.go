package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/cmsdesk/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.RemoteRequests == nil {
		t.Error("RemoteRequests is nil")
	}
	if m.EditsApplied == nil {
		t.Error("EditsApplied is nil")
	}
	if m.Saves == nil {
		t.Error("Saves is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestObserveRemote(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveRemote("GET", "/entries/ent_1", 200, 10*time.Millisecond)
	m.ObserveRemote("GET", "/entries/ent_2", 404, time.Millisecond)
	m.ObserveRemote("PUT", "/entries/ent_2", 0, time.Millisecond)

	if got := testutil.ToFloat64(m.RemoteRequests.WithLabelValues("GET", "/entries/:id", "2xx")); got != 1 {
		t.Errorf("GET 2xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RemoteErrors.WithLabelValues("client")); got != 1 {
		t.Errorf("client errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RemoteErrors.WithLabelValues("transport")); got != 1 {
		t.Errorf("transport errors = %v, want 1", got)
	}
}

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RecordEdit("set")
	m.RecordEdit("set")
	m.RecordDiff("pending")
	m.RecordSave(nil)
	m.RecordSave(errors.New("boom"))
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.RecordReload(nil, time.Unix(1700000000, 0))
	m.RecordReload(errors.New("bad"), time.Now())

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"edits", m.EditsApplied.WithLabelValues("set"), 2},
		{"diffs", m.DiffsComputed.WithLabelValues("pending"), 1},
		{"saves ok", m.Saves.WithLabelValues("ok"), 1},
		{"saves error", m.Saves.WithLabelValues("error"), 1},
		{"sessions", m.SessionsOpen, 1},
		{"reloads", m.ConfigReloads, 1},
		{"reload errors", m.ConfigReloadErrors, 1},
		{"last reload", m.ConfigLastReload, 1700000000},
	}
	for _, tt := range checks {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNilCollector(t *testing.T) {
	var m *metrics.Collector
	m.ObserveRemote("GET", "/models", 200, time.Second)
	m.ObserveHTTP("GET", "/models", 200, time.Second)
	m.RecordEdit("set")
	m.RecordDiff("pending")
	m.RecordSave(nil)
	m.SessionOpened()
	m.SessionClosed()
	m.RecordReload(nil, time.Now())
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/models", "/models"},
		{"/models/mdl_1", "/models/:id"},
		{"/models/mdl_1/entries?limit=10&offset=0", "/models/:id/entries"},
		{"/entries/ent_9", "/entries/:id"},
		{"/sessions/abc/rows", "/sessions/:id/rows"},
		{"/auth/login", "/auth/login"},
	}
	for _, tt := range tests {
		if got := metrics.NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{0: "error", 200: "2xx", 204: "2xx", 404: "4xx", 503: "5xx"}
	for in, want := range tests {
		if got := metrics.StatusClass(in); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", in, got, want)
		}
	}
}
