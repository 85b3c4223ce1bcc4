package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"focusService/internal/clock"

	"github.com/google/uuid"
)

// RecordFocus stores a run's focus report and adds it to the subject task.
// A report for a run that was already recorded is ignored, so a retried
// delivery never double counts.
func (s *Store) RecordFocus(ctx context.Context, report clock.FocusReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin focus record: %w", err)
	}
	defer tx.Rollback()

	completed := 0
	if report.Completed {
		completed = 1
	}
	at := report.At
	if at.IsZero() {
		at = time.Now()
	}

	res, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO focus_records (id, run_id, task_id, focus_seconds, completed, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO NOTHING`),
		uuid.NewString(), report.RunID, report.Subject, report.FocusSeconds(), completed, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert focus record: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert focus record: %w", err)
	}
	if inserted == 0 {
		log.Printf("ℹ️ Focus for run %s already recorded", report.RunID)
		return nil
	}

	if report.Subject != "" {
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE tasks SET focus_seconds = focus_seconds + ?, updated_at = ? WHERE id = ?`),
			report.FocusSeconds(), time.Now().UTC().Format(time.RFC3339), report.Subject,
		)
		if err != nil {
			return fmt.Errorf("update task focus: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Printf("⚠️ Focus for run %s names unknown task %s", report.RunID, report.Subject)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit focus record: %w", err)
	}
	log.Printf("📝 Recorded %ds focus for run %s", report.FocusSeconds(), report.RunID)
	return nil
}

// ListFocusRecords returns focus records newest first. An empty taskID lists
// every record.
func (s *Store) ListFocusRecords(ctx context.Context, taskID string) ([]FocusRecord, error) {
	query := `SELECT id, run_id, task_id, focus_seconds, completed, recorded_at FROM focus_records`
	var args []any
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY recorded_at DESC, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list focus records: %w", err)
	}
	defer rows.Close()

	var records []FocusRecord
	for rows.Next() {
		var r FocusRecord
		var completed int
		var recordedAt string
		if err := rows.Scan(&r.ID, &r.RunID, &r.TaskID, &r.FocusSeconds, &completed, &recordedAt); err != nil {
			return nil, err
		}
		r.Completed = completed == 1
		r.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

var _ clock.FocusRecorder = (*Store)(nil)
