package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"daily-meal-notifier/internal/logging"

	"github.com/rs/zerolog"
)

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(time.UTC, logging.Nop())

	if err := s.Register(DailyJobID, "0 12 * * *", func() {}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := s.Register(DailyJobID, "30 11 * * *", func() {}); err != nil {
		t.Fatalf("Expected no error on re-register, got %v", err)
	}

	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("Expected exactly 1 cron entry after re-registering, got %d", got)
	}

	if err := s.Register("broken", "every noon", func() {}); err == nil {
		t.Error("Expected an error for an invalid cron spec, got nil")
	}
}

func TestSchedulerLogsWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := NewScheduler(time.UTC, &logger)

	s.Register(DailyJobID, "0 12 * * *", func() {})
	s.Register(DailyJobID, "0 13 * * *", func() {})

	out := buf.String()
	if !strings.Contains(out, `"component":"Scheduler"`) || !strings.Contains(out, "replaced existing job") {
		t.Errorf("Expected a component-tagged replace log, got %q", out)
	}
}

func TestSchedulerNextRunUsesLocation(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	s := NewScheduler(la, logging.Nop())
	if err := s.Register(DailyJobID, "0 12 * * *", func() {}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	s.Start()
	defer s.Stop(context.Background())

	next, ok := s.NextRun(DailyJobID)
	if !ok {
		t.Fatal("Expected a next run time once started")
	}
	if local := next.In(la); local.Hour() != 12 || local.Minute() != 0 {
		t.Errorf("Expected next run at 12:00 Los Angeles time, got %s", local)
	}

	if _, ok := s.NextRun("missing"); ok {
		t.Error("Expected no next run for an unknown job")
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(time.UTC, logging.Nop())
	if s.State() != StateStopped || s.IsRunning() {
		t.Fatalf("Expected a new scheduler to be stopped, got %s", s.State())
	}

	s.Start()
	s.Start()
	if !s.IsRunning() {
		t.Fatal("Expected scheduler to be running after Start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Expected clean stop, got %v", err)
	}
	if s.IsRunning() {
		t.Error("Expected scheduler to be stopped after Stop")
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
}

func TestSchedulerFiresJobs(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}

	s := NewScheduler(time.UTC, logging.Nop())
	var fired atomic.Int32
	if err := s.Register("tick", "@every 1s", func() { fired.Add(1) }); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := s.Register("panics", "@every 1s", func() { panic("boom") }); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop(context.Background())

	if fired.Load() == 0 {
		t.Error("Expected the job to fire at least once")
	}
}

func TestSchedulerWatch(t *testing.T) {
	t.Run("ReturnsNilOnCancel", func(t *testing.T) {
		s := NewScheduler(time.UTC, logging.Nop())
		s.Start()
		defer s.Stop(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := s.Watch(ctx, 10*time.Millisecond); err != nil {
			t.Errorf("Expected nil on context cancel, got %v", err)
		}
	})

	t.Run("RejectsNonPositiveInterval", func(t *testing.T) {
		s := NewScheduler(time.UTC, logging.Nop())
		if err := s.Watch(context.Background(), 0); err == nil {
			t.Error("Expected an error for a zero interval, got nil")
		}
	})

	t.Run("DetectsUnexpectedStop", func(t *testing.T) {
		s := NewScheduler(time.UTC, logging.Nop())
		s.Start()

		errCh := make(chan error, 1)
		go func() { errCh <- s.Watch(context.Background(), 10*time.Millisecond) }()

		time.Sleep(30 * time.Millisecond)
		s.Stop(context.Background())

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrSchedulerStopped) {
				t.Errorf("Expected ErrSchedulerStopped, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Watch did not notice the stopped scheduler")
		}
	})
}
