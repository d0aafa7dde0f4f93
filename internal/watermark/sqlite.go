package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kyleseven/ReLive-Compress/internal/fileattr"
)

const watermarkKey = "last_compress"

const schema = `
CREATE TABLE IF NOT EXISTS watermark (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	attempted   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	watermark   INTEGER NOT NULL
);`

// SQLiteStore keeps the watermark in a SQLite database together with a
// history of finished runs.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, hide bool) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open watermark database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize watermark database %s: %w", path, err)
	}
	if hide && fileattr.HiddenSupported {
		if err := fileattr.Hide(path); err != nil {
			db.Close()
			return nil, fmt.Errorf("hide watermark database: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Location() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	return s.load(ctx, s.db)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) load(ctx context.Context, q querier) (State, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM watermark WHERE key = ?`, watermarkKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("query watermark: %w", err)
	}
	v, err := parseValue(s.path, raw)
	if err != nil {
		return State{}, err
	}
	return State{Value: v, Found: true}, nil
}

// Save reads the current value and upserts v in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, v int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.load(ctx, tx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if err := checkRegression(s.path, current, v); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO watermark (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		watermarkKey, strconv.FormatInt(v, 10), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store watermark: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watermark: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM watermark WHERE key = ?`, watermarkKey); err != nil {
		return fmt.Errorf("reset watermark: %w", err)
	}
	return nil
}

// RecordRun appends r to the run history.
func (s *SQLiteStore) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, attempted, failed, watermark)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(), r.Attempted, r.Failed, r.Watermark)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, attempted, failed, watermark
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Attempted, &r.Failed, &r.Watermark); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.FinishedAt = time.Unix(0, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
