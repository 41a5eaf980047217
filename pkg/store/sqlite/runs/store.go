package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/compliance-signals/pkg/models/store"
)

var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps one row per pipeline run.
type Store interface {
	Create(ctx context.Context, run *store.Run) error
	Finish(ctx context.Context, run *store.Run) error
	List(ctx context.Context, limit int) ([]store.Run, error)
	Latest(ctx context.Context) (*store.Run, error)
}

type runStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &runStore{db: db}, nil
}

const selectColumns = `
	SELECT id, mode, status, source_url, output_path, rows_read, total,
		records_written, enrich_failures, high_count, med_count, low_count,
		started_at, finished_at, error
	FROM runs`

func (s *runStore) Create(ctx context.Context, run *store.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, status, source_url, output_path, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Status, run.SourceURL, run.OutputPath, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *runStore) Finish(ctx context.Context, run *store.Run) error {
	var finished *string
	if run.FinishedAt != nil {
		v := formatTime(*run.FinishedAt)
		finished = &v
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			status = ?, rows_read = ?, total = ?, records_written = ?, enrich_failures = ?,
			high_count = ?, med_count = ?, low_count = ?, finished_at = ?, error = ?
		WHERE id = ?`,
		run.Status, run.RowsRead, run.Total, run.RecordsWritten, run.EnrichFailures,
		run.HighCount, run.MedCount, run.LowCount, finished, run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (s *runStore) List(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	result := make([]store.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

func (s *runStore) Latest(ctx context.Context) (*store.Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*store.Run, error) {
	var (
		run      store.Run
		started  string
		finished sql.NullString
		errText  sql.NullString
	)
	err := sc.Scan(
		&run.ID, &run.Mode, &run.Status, &run.SourceURL, &run.OutputPath,
		&run.RowsRead, &run.Total, &run.RecordsWritten, &run.EnrichFailures,
		&run.HighCount, &run.MedCount, &run.LowCount,
		&started, &finished, &errText,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &t
	}
	if errText.Valid {
		run.Error = &errText.String
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run timestamp %q: %w", s, err)
	}
	return t, nil
}
