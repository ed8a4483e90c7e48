package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daily-meal-notifier/internal/logging"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrSchedulerStopped is returned by Watch when the scheduler stops while it
// was expected to be running.
var ErrSchedulerStopped = errors.New("scheduler stopped unexpectedly")

// State is the scheduler lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "stopped"
	}
}

// Scheduler owns the cron runner and its lifecycle. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	state   State
	log     *zerolog.Logger
}

// NewScheduler creates a stopped scheduler whose specs are evaluated in loc.
// Panics inside jobs are recovered and logged.
func NewScheduler(loc *time.Location, logger *zerolog.Logger) *Scheduler {
	compLog := logging.Component(logger, "Scheduler")
	cl := cronLogger{log: compLog}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		entries: make(map[string]cron.EntryID),
		log:     compLog,
	}
}

// Register adds job under id with a standard five-field cron spec. A job
// already registered under id is replaced.
func (s *Scheduler) Register(id, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, id, err)
	}
	if prev, ok := s.entries[id]; ok {
		s.cron.Remove(prev)
		s.log.Info().Str("job", id).Msg("replaced existing job")
	}
	s.entries[id] = entryID
	return nil
}

// NextRun reports when the job registered under id fires next.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[id]
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(entryID).Next
	return next, !next.IsZero()
}

// Start begins firing registered jobs. Calling Start on a running scheduler
// has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return
	}
	s.cron.Start()
	s.state = StateRunning
	s.log.Info().Int("jobs", len(s.entries)).Msg("scheduler started")
}

// Stop halts the scheduler and waits for in-flight jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateShuttingDown
	done := s.cron.Stop()
	s.mu.Unlock()

	var err error
	select {
	case <-done.Done():
	case <-ctx.Done():
		err = fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.log.Info().Msg("scheduler stopped")
	return err
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether jobs are being fired.
func (s *Scheduler) IsRunning() bool {
	return s.State() == StateRunning
}

// Watch polls IsRunning every interval. It returns nil when ctx is done and
// ErrSchedulerStopped if the scheduler stopped on its own.
func (s *Scheduler) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("liveness interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.IsRunning() {
				// Shutdown cancels ctx first, so a stop seen here was not requested.
				if ctx.Err() != nil {
					return nil
				}
				s.log.Error().Msg("scheduler stopped unexpectedly")
				return ErrSchedulerStopped
			}
		}
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
