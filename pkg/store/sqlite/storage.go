package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const RunsTableSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT NOT NULL PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		source_url TEXT NOT NULL,
		output_path TEXT NOT NULL,
		rows_read INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		records_written INTEGER NOT NULL DEFAULT 0,
		enrich_failures INTEGER NOT NULL DEFAULT 0,
		high_count INTEGER NOT NULL DEFAULT 0,
		med_count INTEGER NOT NULL DEFAULT 0,
		low_count INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NULL,
		error TEXT NULL
	);
`

const RunsStartedIndex = `CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);`

var bootQueries = []string{
	RunsTableSchema,
	RunsStartedIndex,
}

type Settings struct {
	DbPath string
}

// NewDB opens the history database and creates its schema.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.DbPath != ":memory:" {
		if dir := filepath.Dir(settings.DbPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", settings.DbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", settings.DbPath, err)
	}
	// one connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)

	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("boot query failed: %w", err)
		}
	}
	return db, nil
}
