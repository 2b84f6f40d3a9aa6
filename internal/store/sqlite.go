package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/worktime/internal/interval"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteFile is the database name inside the data directory.
const SQLiteFile = "worktime.db"

// SQLite keeps every year in one database file.
type SQLite struct {
	db   *sql.DB
	path string
	dir  string
	lock *fileLock
	log  *logrus.Entry
}

func openSQLite(dir string, log *logrus.Entry) (*SQLite, error) {
	path := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening interval db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{
		db:   db,
		path: path,
		dir:  dir,
		lock: newFileLock(dir),
		log:  log.WithField("backend", BackendSQLite),
	}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Dir() string { return s.dir }

func (s *SQLite) Location(int) string { return s.path }

func (s *SQLite) WithLock(ctx context.Context, fn func() error) error {
	return s.lock.with(ctx, fn)
}

// Load returns the year's intervals ordered by start.
func (s *SQLite) Load(ctx context.Context, year int) ([]interval.Interval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_ms, end_ms, workspace FROM intervals WHERE year = ? ORDER BY start_ms, end_ms`, year)
	if err != nil {
		return nil, fmt.Errorf("querying %d: %w", year, err)
	}
	defer func() { _ = rows.Close() }()

	var ivs []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		var workspace string
		if err := rows.Scan(&iv.Start, &iv.End, &workspace); err != nil {
			return nil, err
		}
		iv.Labels = interval.ParseLabels(workspace)
		ivs = append(ivs, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sanitize(ivs, s.log, s.path), nil
}

// Save replaces all rows of year in a single transaction.
func (s *SQLite) Save(ctx context.Context, year int, ivs []interval.Interval) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM intervals WHERE year = ?", year); err != nil {
		return fmt.Errorf("clearing %d: %w", year, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO intervals (year, start_ms, end_ms, workspace) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, iv := range interval.SortByStart(ivs) {
		if _, err := stmt.ExecContext(ctx, year, iv.Start, iv.End, iv.Labels.String()); err != nil {
			return fmt.Errorf("inserting %v: %w", iv, err)
		}
	}
	return tx.Commit()
}

// Years lists years with at least one stored interval, newest first.
func (s *SQLite) Years(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT year FROM intervals")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return sortYearsDesc(years), rows.Err()
}

func (s *SQLite) LoadCurrent(ctx context.Context) (*interval.Open, error) {
	var cur interval.Open
	var workspace string
	err := s.db.QueryRowContext(ctx,
		"SELECT start_ms, workspace FROM current_interval WHERE id = 1").Scan(&cur.Start, &workspace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading current interval: %w", err)
	}
	cur.Labels = interval.ParseLabels(workspace)
	if len(cur.Labels) == 0 {
		s.log.Warn("dropping current interval without a workspace")
		return nil, nil
	}
	return &cur, nil
}

func (s *SQLite) SaveCurrent(ctx context.Context, cur *interval.Open) error {
	if cur == nil {
		_, err := s.db.ExecContext(ctx, "DELETE FROM current_interval")
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO current_interval (id, start_ms, workspace, updated_at) VALUES (1, ?, ?, ?)`,
		cur.Start, cur.Labels.String(), time.Now().UTC().Format(time.RFC3339))
	return err
}
