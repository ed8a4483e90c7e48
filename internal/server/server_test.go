package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daily-meal-notifier/internal/logging"
	"daily-meal-notifier/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type mockScheduler struct {
	running bool
	next    time.Time
}

func (m *mockScheduler) IsRunning() bool { return m.running }

func (m *mockScheduler) NextRun(id string) (time.Time, bool) {
	return m.next, !m.next.IsZero()
}

func newTestServer(sched SchedulerStatus) http.Handler {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	return New(sched, "daily_meal_notification", "", reg, logging.Nop()).Router()
}

func TestHealth(t *testing.T) {
	t.Run("Running", func(t *testing.T) {
		next := time.Date(2026, time.October, 16, 19, 0, 0, 0, time.UTC)
		h := newTestServer(&mockScheduler{running: true, next: next})

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var body Health
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body.Status != "ok" {
			t.Errorf("expected status 'ok', got %q", body.Status)
		}
		if body.NextRun == nil || !body.NextRun.Equal(next) {
			t.Errorf("expected next_run %s, got %v", next, body.NextRun)
		}
		if body.System.Goroutines == 0 {
			t.Error("expected system stats to be populated")
		}
	})

	t.Run("Stopped", func(t *testing.T) {
		h := newTestServer(&mockScheduler{running: false})

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"scheduler_stopped"`) {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})
}

func TestMetrics(t *testing.T) {
	metrics.ObserveRun("manual", metrics.StatusSent)
	h := newTestServer(&mockScheduler{running: true})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "meal_notifier_job_runs_total") {
		t.Errorf("expected job run counter in output")
	}
}
