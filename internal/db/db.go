// Package db is the SQLite-backed historical table store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/wallwatch/internal/collector"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// DB is a history.Store backed by a SQLite file.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path and brings its
// schema up to date.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(MigrationsFS()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens the database without running migrations.
func OpenDB(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{DB: sqlDB, path: path}, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

const savedAtKey = "table_saved_at"

// Load returns the stored table in write order. A database that has never
// been saved to reports history.ErrTableNotFound.
func (db *DB) Load(ctx context.Context) (walls.Table, error) {
	var savedAt string
	err := db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, savedAtKey).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return walls.Table{}, history.ErrTableNotFound
	}
	if err != nil {
		return walls.Table{}, fmt.Errorf("failed to read store state: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT seq, scrape_date, scrape_time, name, capacity, count, time
		FROM wall_snapshots
		ORDER BY seq`)
	if err != nil {
		return walls.Table{}, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []walls.SnapshotRow
	for rows.Next() {
		var (
			seq       int64
			date, tod string
			r         walls.SnapshotRow
		)
		if err := rows.Scan(&seq, &date, &tod, &r.Name, &r.Capacity, &r.Count, &r.LastUpdated); err != nil {
			return walls.Table{}, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if r.ScrapeDate, err = timeutil.ParseDate(date); err != nil {
			return walls.Table{}, fmt.Errorf("row %d: scrape_date: %w", seq, err)
		}
		if r.ScrapeTime, err = walls.ParseClockTime(tod); err != nil {
			return walls.Table{}, fmt.Errorf("row %d: scrape_time: %w", seq, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return walls.Table{}, err
	}
	return walls.Table{Rows: out}, nil
}

// Save replaces the stored table inside one transaction, so a failure
// leaves the previous table in place.
func (db *DB) Save(ctx context.Context, t walls.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wall_snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wall_snapshots (seq, scrape_date, scrape_time, name, capacity, count, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, i+1, r.ScrapeDate.String(), string(r.ScrapeTime), r.Name, r.Capacity, r.Count, r.LastUpdated); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO store_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savedAtKey, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to update store state: %w", err)
	}

	return tx.Commit()
}

// RecordRun appends a collector run to the audit table.
func (db *DB) RecordRun(ctx context.Context, r collector.RunResult) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO collector_runs (run_id, captured_at, fetched, rows_before, rows_after, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.CapturedAt.Format(time.RFC3339Nano), r.Fetched, r.RowsBefore, r.RowsAfter, r.Created)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]collector.RunResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, captured_at, fetched, rows_before, rows_after, created
		FROM collector_runs
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []collector.RunResult
	for rows.Next() {
		var r collector.RunResult
		var capturedAt string
		if err := rows.Scan(&r.RunID, &capturedAt, &r.Fetched, &r.RowsBefore, &r.RowsAfter, &r.Created); err != nil {
			return nil, err
		}
		if r.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt); err != nil {
			return nil, fmt.Errorf("run %s: captured_at: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

var (
	_ history.Store         = (*DB)(nil)
	_ collector.RunRecorder = (*DB)(nil)
)
