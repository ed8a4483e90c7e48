package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusSent    = "sent"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// JobRun records one execution of the lookup-and-send sequence.
type JobRun struct {
	ID         string
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time
	Message    string
	Status     string
	Error      string
	Deliveries []DeliveryRecord
}

// DeliveryRecord is the outcome of sending to one chat.
type DeliveryRecord struct {
	ChatTarget string
	MessageID  int
	Error      string
	SentAt     time.Time
}

// Store handles persistence of job history to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordRun saves a run and its deliveries in one transaction.
func (s *Store) RecordRun(ctx context.Context, run JobRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO job_runs (id, trigger_source, started_at, finished_at, message, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Trigger, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Message, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job run %s: %w", run.ID, err)
	}

	for _, d := range run.Deliveries {
		sentAt := d.SentAt
		if sentAt.IsZero() {
			sentAt = run.FinishedAt
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deliveries (run_id, chat_target, message_id, error, sent_at) VALUES (?, ?, ?, ?, ?)`,
			run.ID, d.ChatTarget, d.MessageID, d.Error, formatTime(sentAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert delivery for run %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns the latest runs, newest first, with their deliveries.
func (s *Store) Recent(ctx context.Context, limit int) ([]JobRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trigger_source, started_at, finished_at, message, status, error
		 FROM job_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var (
			r                 JobRun
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Trigger, &started, &finished, &r.Message, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		deliveries, err := s.deliveries(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Deliveries = deliveries
	}
	return runs, nil
}

func (s *Store) deliveries(ctx context.Context, runID string) ([]DeliveryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_target, message_id, error, sent_at FROM deliveries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []DeliveryRecord
	for rows.Next() {
		var (
			d      DeliveryRecord
			sentAt string
		)
		if err := rows.Scan(&d.ChatTarget, &d.MessageID, &d.Error, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.SentAt = parseTime(sentAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Cleanup removes runs (and their deliveries) older than the given number of
// days and reports how many runs were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := formatTime(time.Now().AddDate(0, 0, -olderThanDays))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM deliveries WHERE run_id IN (SELECT id FROM job_runs WHERE started_at < ?)`, threshold); err != nil {
		return 0, fmt.Errorf("failed to delete old deliveries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM job_runs WHERE started_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old job runs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
