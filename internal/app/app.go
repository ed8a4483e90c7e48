package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"time"

	"daily-meal-notifier/internal/config"
	"daily-meal-notifier/internal/database"
	"daily-meal-notifier/internal/lock"
	"daily-meal-notifier/internal/metrics"
	"daily-meal-notifier/internal/notifier"
	"daily-meal-notifier/internal/planner"
	"daily-meal-notifier/internal/recipe"
	"daily-meal-notifier/internal/server"
	"daily-meal-notifier/internal/telegram"

	"cloud.google.com/go/firestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// shutdownTimeout bounds how long in-flight jobs may delay exit.
const shutdownTimeout = 10 * time.Second

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log *zerolog.Logger

	db           *database.DB
	historyStore *metrics.Store
	sched        *notifier.Scheduler
	registry     *prometheus.Registry

	// Set by Connect.
	firestore *firestore.Client
	locker    *lock.RedisLocker
	notifier  *notifier.Notifier
}

// New opens the local history database. Remote services are attached
// separately by Connect so history commands work offline.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	return &App{
		cfg:          cfg,
		log:          logger,
		db:           db,
		historyStore: metrics.NewStore(db.SQL),
		sched:        notifier.NewScheduler(cfg.Location(), logger),
		registry:     reg,
	}, nil
}

// Connect opens Firestore, authorizes the Telegram bot and, when configured,
// connects the Redis day lock. Any failure here is a startup failure.
func (a *App) Connect(ctx context.Context) error {
	clock, err := planner.NewZoneClock(a.cfg.Timezone)
	if err != nil {
		return err
	}

	fs, err := database.NewFirestore(ctx, a.cfg.FirebaseProjectID, a.cfg.FirebaseCredentialsJSON)
	if err != nil {
		return err
	}
	a.firestore = fs
	a.log.Info().Str("project", a.cfg.FirebaseProjectID).Msg("connected to Firestore")

	tg, err := telegram.NewClient(a.cfg, a.log)
	if err != nil {
		return err
	}

	lookup := planner.NewLookup(
		planner.NewPlanRepository(fs),
		recipe.NewRepository(fs),
		clock,
		a.log,
	)

	opts := []notifier.Option{notifier.WithHistory(a.historyStore)}
	if a.cfg.RedisAddr != "" {
		locker, err := lock.NewRedisLocker(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword)
		if err != nil {
			return err
		}
		a.locker = locker
		opts = append(opts, notifier.WithLocker(locker))
		a.log.Info().Str("addr", a.cfg.RedisAddr).Msg("day lock enabled")
	}

	a.notifier = notifier.New(lookup, tg, clock, a.log, opts...)
	return nil
}

// SendOnce runs the daily job a single time.
func (a *App) SendOnce(ctx context.Context) (metrics.JobRun, error) {
	if a.notifier == nil {
		return metrics.JobRun{}, errors.New("app is not connected")
	}
	return a.notifier.SendDailyMeal(ctx, notifier.TriggerManual), nil
}

// Serve schedules the daily job, announces startup and then blocks until ctx
// is cancelled or the scheduler stops on its own. Cancellation is a clean
// shutdown and returns nil.
func (a *App) Serve(ctx context.Context) error {
	if a.notifier == nil {
		return errors.New("app is not connected")
	}

	job := func() {
		a.notifier.SendDailyMeal(context.Background(), notifier.TriggerSchedule)
	}
	if err := a.sched.Register(notifier.DailyJobID, a.cfg.Schedule, job); err != nil {
		return err
	}
	a.sched.Start()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.sched.Stop(stopCtx); err != nil {
			a.log.Warn().Err(err).Msg("scheduler did not stop cleanly")
		}
	}()

	addr := net.JoinHostPort("", a.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}

	if next, ok := a.sched.NextRun(notifier.DailyJobID); ok {
		a.log.Info().Str("schedule", a.cfg.Schedule).
			Str("timezone", a.cfg.Timezone).
			Time("next_run", next).
			Msg("daily meal notification scheduled")
	}

	if err := a.notifier.AnnounceStartup(ctx); err != nil {
		a.log.Warn().Err(err).Msg("startup notification not delivered")
	}

	httpSrv := server.New(a.sched, notifier.DailyJobID, filepath.Dir(a.cfg.DatabasePath), a.registry, a.log)
	httpErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Serve(ln) }()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(stopCtx); err != nil {
			a.log.Warn().Err(err).Msg("http server forced to shutdown")
		}
	}()

	watchErr := make(chan error, 1)
	go func() { watchErr <- a.sched.Watch(ctx, a.cfg.LivenessInterval) }()

	select {
	case err := <-watchErr:
		if err != nil {
			return err
		}
	case err := <-httpErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}
	a.log.Info().Msg("shutting down")
	return nil
}

// PrintHistory writes the most recent runs to w.
func (a *App) PrintHistory(ctx context.Context, w io.Writer, limit int) error {
	runs, err := a.historyStore.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-8s %-8s %s\n",
			run.StartedAt.Format(time.DateTime), run.Trigger, run.Status, run.ID)
		if run.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", run.Error)
		}
		for _, d := range run.Deliveries {
			if d.Error != "" {
				fmt.Fprintf(w, "    -> %s: %s\n", d.ChatTarget, d.Error)
			} else {
				fmt.Fprintf(w, "    -> %s: message %d\n", d.ChatTarget, d.MessageID)
			}
		}
	}
	return nil
}

// CleanupHistory deletes runs older than days and reports how many went.
func (a *App) CleanupHistory(ctx context.Context, days int) (int64, error) {
	return a.historyStore.Cleanup(ctx, days)
}

// Close releases every resource the App opened.
func (a *App) Close() error {
	var errs []error
	if a.locker != nil {
		errs = append(errs, a.locker.Close())
	}
	if a.firestore != nil {
		errs = append(errs, a.firestore.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}
