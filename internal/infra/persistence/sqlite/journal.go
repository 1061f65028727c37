// Package sqlite stores the deletion journal in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"labqms/pkg/domain"
)

var _ domain.DeletionJournal = (*Journal)(nil)

const defaultPath = "labqms-journal.db"

// Journal appends deletion log entries with an instrument snapshot to a single
// table. Rows are never updated or deleted.
type Journal struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open creates (or reopens) the journal at path. An empty path uses
// labqms-journal.db in the working directory; ":memory:" keeps it in process.
func Open(path string) (*Journal, error) {
	if path == "" {
		path = defaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS deletion_journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		instrument_no TEXT NOT NULL,
		instrument_name TEXT NOT NULL,
		deleted_at TEXT NOT NULL,
		deleted_by TEXT NOT NULL,
		type TEXT NOT NULL,
		snapshot BLOB
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return &Journal{db: db, path: path}, nil
}

// Append inserts one journal row.
func (j *Journal) Append(ctx context.Context, entry domain.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO deletion_journal(id,instrument_no,instrument_name,deleted_at,deleted_by,type,snapshot) VALUES(?,?,?,?,?,?,?)`,
		entry.Log.ID,
		entry.Log.InstrumentNo,
		entry.Log.InstrumentName,
		entry.Log.DeletedAt.UTC().Format(time.RFC3339Nano),
		entry.Log.DeletedBy,
		string(entry.Log.Type),
		[]byte(entry.Snapshot.Raw()),
	)
	if err != nil {
		return fmt.Errorf("insert journal %s: %w", entry.Log.ID, err)
	}
	return nil
}

// List returns all rows in insertion order.
func (j *Journal) List(ctx context.Context) ([]domain.JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, instrument_no, instrument_name, deleted_at, deleted_by, type, snapshot FROM deletion_journal ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			log       domain.DeletionLog
			deletedAt string
			typ       string
			snapshot  []byte
		)
		if err := rows.Scan(&log.ID, &log.InstrumentNo, &log.InstrumentName, &deletedAt, &log.DeletedBy, &typ, &snapshot); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, deletedAt)
		if err != nil {
			return nil, fmt.Errorf("decode deleted_at for %s: %w", log.ID, err)
		}
		log.DeletedAt = at
		log.Type = domain.DeletionType(typ)
		out = append(out, domain.JournalEntry{Log: log, Snapshot: domain.NewSnapshot(snapshot)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return out, nil
}

// Driver identifies the backend.
func (j *Journal) Driver() string { return "sqlite" }

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (j *Journal) DB() *sql.DB { return j.db }

// Path returns the configured database path.
func (j *Journal) Path() string { return j.path }
