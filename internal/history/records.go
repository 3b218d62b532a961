package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = "id, kind, subject, period, status, stage, panel_ids, outcome, filename, output_path, size_bytes, fell_back, settle_timeouts, error_message, started_at, finished_at"

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no record matches an id.
var ErrNotFound = errors.New("history record not found")

// Completion carries the fields written when a job succeeds.
type Completion struct {
	Outcome        string
	Filename       string
	OutputPath     string
	SizeBytes      int
	FellBack       bool
	SettleTimeouts int
}

// Begin inserts a running record. ID, Kind and Subject are required.
func (s *Store) Begin(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.Kind) == "" {
		return errors.New("record id and kind are required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO export_jobs (
            id, kind, subject, period, status, stage, panel_count, panel_ids, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Kind,
		rec.Subject,
		rec.Period,
		StatusRunning,
		nullableString(rec.Stage),
		len(rec.PanelIDs),
		nullableString(joinPanelIDs(rec.PanelIDs)),
		rec.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

// SetStage records the stage a running job has reached.
func (s *Store) SetStage(ctx context.Context, id, stage string) error {
	return s.updateOne(ctx, "set stage",
		`UPDATE export_jobs SET stage = ? WHERE id = ? AND status = ?`,
		stage, id, StatusRunning)
}

// Succeed marks a running job as finished successfully.
func (s *Store) Succeed(ctx context.Context, id string, c Completion) error {
	return s.updateOne(ctx, "complete export job",
		`UPDATE export_jobs
         SET status = ?, outcome = ?, filename = ?, output_path = ?, size_bytes = ?,
             fell_back = ?, settle_timeouts = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		StatusSucceeded,
		nullableString(c.Outcome),
		nullableString(c.Filename),
		nullableString(c.OutputPath),
		c.SizeBytes,
		boolToInt(c.FellBack),
		c.SettleTimeouts,
		time.Now().UTC().Format(timeLayout),
		id,
		StatusRunning,
	)
}

// Fail marks a running job as failed at stage with cause.
func (s *Store) Fail(ctx context.Context, id, stage string, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	return s.updateOne(ctx, "fail export job",
		`UPDATE export_jobs
         SET status = ?, stage = ?, error_message = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed,
		nullableString(stage),
		message,
		time.Now().UTC().Format(timeLayout),
		id,
		StatusRunning,
	)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// MarkInterrupted closes out jobs left running by a previous process and
// returns how many were touched.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE export_jobs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		StatusInterrupted,
		InterruptedReason,
		time.Now().UTC().Format(timeLayout),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM export_jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first. A non-positive limit
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM export_jobs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export job: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Summarize aggregates counts by status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1), COALESCE(SUM(size_bytes), 0) FROM export_jobs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize export jobs: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status Status
			count  int
			bytes  int64
		)
		if err := rows.Scan(&status, &count, &bytes); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		summary.TotalBytes += bytes
		switch status {
		case StatusSucceeded:
			summary.Succeeded += count
		case StatusFailed:
			summary.Failed += count
		case StatusInterrupted:
			summary.Interrupted += count
		case StatusRunning:
			summary.Running += count
		}
	}
	return summary, rows.Err()
}

// Prune deletes finished records that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM export_jobs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune export jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		status      string
		stage       sql.NullString
		panelIDs    sql.NullString
		outcome     sql.NullString
		filename    sql.NullString
		outputPath  sql.NullString
		fellBack    int
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Subject,
		&rec.Period,
		&status,
		&stage,
		&panelIDs,
		&outcome,
		&filename,
		&outputPath,
		&rec.SizeBytes,
		&fellBack,
		&rec.SettleTimeouts,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.Stage = stage.String
	rec.PanelIDs = splitPanelIDs(panelIDs.String)
	rec.Outcome = outcome.String
	rec.Filename = filename.String
	rec.OutputPath = outputPath.String
	rec.FellBack = fellBack != 0
	rec.ErrorMessage = errorMsg.String
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
