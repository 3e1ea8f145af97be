// Package store keeps an in-process journal of executed file operations in
// SQLite. The journal lives in memory by default and is gone when the
// process exits.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/justyntemme/twinpane/internal/debug"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Entry is one executed file operation.
type Entry struct {
	ID       int64
	At       time.Time
	Pane     string
	Op       string
	Src      string
	Dst      string
	Bytes    int64
	Duration time.Duration
	Err      string // empty on success
	Code     int    // error code, 0 on success
}

// OK reports whether the operation succeeded.
func (e Entry) OK() bool { return e.Err == "" }

// Journal records file operations, keeping at most limit entries.
type Journal struct {
	conn  *sql.DB
	limit int
}

// Open opens a journal at path, or in memory for MemoryPath. A limit of
// zero or less keeps every entry.
func Open(path string, limit int) (*Journal, error) {
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if path != MemoryPath {
		// WAL mode allows simultaneous readers and writers
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, err
		}
		if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
			db.Close()
			return nil, err
		}
	}

	query := `
	CREATE TABLE IF NOT EXISTS operations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		at          INTEGER NOT NULL,
		pane        TEXT NOT NULL DEFAULT '',
		op          TEXT NOT NULL,
		src         TEXT NOT NULL DEFAULT '',
		dst         TEXT NOT NULL DEFAULT '',
		bytes       INTEGER NOT NULL DEFAULT 0,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		err         TEXT NOT NULL DEFAULT '',
		code        INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	debug.Log(debug.STORE, "journal opened at %s (limit %d)", path, limit)
	return &Journal{conn: db, limit: limit}, nil
}

// Record appends e and returns its id. A zero At is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	res, err := j.conn.ExecContext(ctx,
		`INSERT INTO operations (at, pane, op, src, dst, bytes, duration_ns, err, code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixNano(), e.Pane, e.Op, e.Src, e.Dst, e.Bytes, int64(e.Duration), e.Err, e.Code)
	if err != nil {
		return 0, fmt.Errorf("record %s: %w", e.Op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if j.limit > 0 {
		if _, err := j.conn.ExecContext(ctx, "DELETE FROM operations WHERE id <= ?", id-int64(j.limit)); err != nil {
			return id, fmt.Errorf("trim journal: %w", err)
		}
	}
	debug.Log(debug.STORE, "journal #%d: %s %q -> %q err=%q", id, e.Op, e.Src, e.Dst, e.Err)
	return id, nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = -1 // SQLite: no limit
	}
	rows, err := j.conn.QueryContext(ctx,
		`SELECT id, at, pane, op, src, dst, bytes, duration_ns, err, code
		 FROM operations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			at, durN int64
		)
		if err := rows.Scan(&e.ID, &at, &e.Pane, &e.Op, &e.Src, &e.Dst, &e.Bytes, &durN, &e.Err, &e.Code); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		e.Duration = time.Duration(durN)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Failures returns up to n failed entries, newest first.
func (j *Journal) Failures(ctx context.Context, n int) ([]Entry, error) {
	all, err := j.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.OK() {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM operations").Scan(&n)
	return n, err
}

// Close closes the database. Safe on a nil Journal.
func (j *Journal) Close() error {
	if j == nil || j.conn == nil {
		return nil
	}
	return j.conn.Close()
}
