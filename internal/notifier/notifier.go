package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-meal-notifier/internal/lock"
	"daily-meal-notifier/internal/logging"
	"daily-meal-notifier/internal/metrics"
	"daily-meal-notifier/internal/planner"
	"daily-meal-notifier/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

const (
	// DailyJobID identifies the daily notification in the scheduler.
	DailyJobID = "daily_meal_notification"

	startupMessage = "✅ Daily meal notifier service started successfully"
	dayLockTTL     = 20 * time.Hour
)

// MealSource renders today's meal message. It never fails.
type MealSource interface {
	TodayMeal(ctx context.Context) string
}

// Messenger delivers a text message to the configured chats.
type Messenger interface {
	SendMessage(ctx context.Context, text string) ([]telegram.Delivery, error)
}

// HistoryRecorder persists finished runs.
type HistoryRecorder interface {
	RecordRun(ctx context.Context, run metrics.JobRun) error
}

// Locker guards scheduled runs across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// Notifier runs the lookup-then-send sequence.
type Notifier struct {
	meals     MealSource
	messenger Messenger
	history   HistoryRecorder
	locker    Locker
	clock     planner.Clock
	log       *zerolog.Logger
}

// Option configures optional Notifier collaborators.
type Option func(*Notifier)

// WithHistory records every run to h.
func WithHistory(h HistoryRecorder) Option {
	return func(n *Notifier) { n.history = h }
}

// WithLocker makes scheduled runs take a per-day lock.
func WithLocker(l Locker) Option {
	return func(n *Notifier) { n.locker = l }
}

// New creates a Notifier.
func New(meals MealSource, messenger Messenger, clock planner.Clock, logger *zerolog.Logger, opts ...Option) *Notifier {
	compLog := logging.Component(logger, "Notifier")
	n := &Notifier{
		meals:     meals,
		messenger: messenger,
		clock:     clock,
		log:       compLog,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendDailyMeal looks up today's meal and sends it. Failures never escape:
// they are logged, reported to the chat on a best-effort basis and returned
// as part of the run record.
func (n *Notifier) SendDailyMeal(ctx context.Context, trigger Trigger) metrics.JobRun {
	run := metrics.JobRun{
		ID:        uuid.NewString(),
		Trigger:   string(trigger),
		StartedAt: time.Now(),
	}
	log := n.log.With().Str("run_id", run.ID).Str("trigger", run.Trigger).Logger()

	lockKey, lockToken, skip := n.acquireDayLock(ctx, trigger, &log)
	if skip {
		run.Status = metrics.StatusSkipped
		return n.finish(ctx, run, &log)
	}

	run.Message = n.meals.TodayMeal(ctx)
	log.Info().Str("message", run.Message).Msg("meal message ready")

	deliveries, err := n.messenger.SendMessage(ctx, run.Message)
	if err != nil {
		errMsg := fmt.Sprintf("Error sending daily meal notification: %v", err)
		log.Error().Err(err).Msg("failed to send daily meal notification")
		run.Status = metrics.StatusFailed
		run.Error = errMsg
		n.reportError(ctx, errMsg, &log)
	} else {
		run.Deliveries = toRecords(deliveries)
		run.Status = deliveryStatus(deliveries)
		if run.Status == metrics.StatusFailed {
			run.Error = "no destination accepted the message"
		} else {
			log.Info().Int("deliveries", len(deliveries)).Msg("daily meal notification sent")
		}
	}

	if lockToken != "" && run.Status == metrics.StatusFailed {
		// Let another replica retry today.
		if err := n.locker.Unlock(ctx, lockKey, lockToken); err != nil {
			log.Warn().Err(err).Str("key", lockKey).Msg("failed to release day lock")
		}
	}

	return n.finish(ctx, run, &log)
}

// AnnounceStartup sends the one-time "service started" message.
func (n *Notifier) AnnounceStartup(ctx context.Context) error {
	deliveries, err := n.messenger.SendMessage(ctx, startupMessage)
	if err != nil {
		return fmt.Errorf("failed to send startup notification: %w", err)
	}
	if deliveryStatus(deliveries) == metrics.StatusFailed {
		return errors.New("failed to send startup notification: no destination accepted the message")
	}
	return nil
}

func (n *Notifier) reportError(ctx context.Context, errMsg string, log *zerolog.Logger) {
	if _, err := n.messenger.SendMessage(ctx, "❌ "+errMsg); err != nil {
		log.Error().Err(err).Msg("failed to send error notification")
	}
}

// acquireDayLock returns skip=true when another replica already owns today's
// scheduled run. Lock errors other than contention do not block the run.
func (n *Notifier) acquireDayLock(ctx context.Context, trigger Trigger, log *zerolog.Logger) (key, token string, skip bool) {
	if n.locker == nil || trigger != TriggerSchedule {
		return "", "", false
	}

	key = "daily-meal:" + n.clock.Now().Format(time.DateOnly)
	token, err := n.locker.TryLock(ctx, key, dayLockTTL)
	switch {
	case errors.Is(err, lock.ErrLocked):
		log.Info().Str("key", key).Msg("another instance owns today's run, skipping")
		return key, "", true
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("day lock unavailable, running anyway")
		return key, "", false
	}
	return key, token, false
}

func (n *Notifier) finish(ctx context.Context, run metrics.JobRun, log *zerolog.Logger) metrics.JobRun {
	run.FinishedAt = time.Now()

	metrics.ObserveRun(run.Trigger, run.Status)
	for _, d := range run.Deliveries {
		metrics.ObserveDelivery(d.Error == "")
	}

	if n.history != nil {
		if err := n.history.RecordRun(ctx, run); err != nil {
			log.Warn().Err(err).Msg("failed to record run history")
		}
	}
	return run
}

func toRecords(deliveries []telegram.Delivery) []metrics.DeliveryRecord {
	records := make([]metrics.DeliveryRecord, 0, len(deliveries))
	for _, d := range deliveries {
		rec := metrics.DeliveryRecord{ChatTarget: d.Target.String(), SentAt: time.Now()}
		if d.Err != nil {
			rec.Error = d.Err.Error()
		} else if d.Message != nil {
			rec.MessageID = d.Message.MessageID
		}
		records = append(records, rec)
	}
	return records
}

func deliveryStatus(deliveries []telegram.Delivery) string {
	ok := 0
	for _, d := range deliveries {
		if d.OK() {
			ok++
		}
	}
	switch {
	case len(deliveries) > 0 && ok == len(deliveries):
		return metrics.StatusSent
	case ok > 0:
		return metrics.StatusPartial
	default:
		return metrics.StatusFailed
	}
}
