// Package postgres stores the deletion journal in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"labqms/pkg/domain"
)

var _ domain.DeletionJournal = (*Journal)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/labqms?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Journal appends deletion events to the deletion_journal table.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open connects using dsn (defaultDSN when empty), pings the server and
// ensures the journal table exists.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureJournalTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func ensureJournalTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS deletion_journal (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		instrument_no TEXT NOT NULL,
		instrument_name TEXT NOT NULL,
		deleted_at TIMESTAMPTZ NOT NULL,
		deleted_by TEXT NOT NULL,
		type TEXT NOT NULL,
		snapshot JSONB
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure journal table: %w", err)
	}
	return nil
}

// Append inserts the entry inside its own transaction.
func (j *Journal) Append(ctx context.Context, entry domain.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var snapshot []byte
	if !entry.Snapshot.IsEmpty() {
		snapshot = entry.Snapshot.Raw()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO deletion_journal(id,instrument_no,instrument_name,deleted_at,deleted_by,type,snapshot) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		entry.Log.ID,
		entry.Log.InstrumentNo,
		entry.Log.InstrumentName,
		entry.Log.DeletedAt.UTC(),
		entry.Log.DeletedBy,
		string(entry.Log.Type),
		snapshot,
	); err != nil {
		return fmt.Errorf("insert journal %s: %w", entry.Log.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// List returns every row in insertion order.
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
			log      domain.DeletionLog
			at       time.Time
			typ      string
			snapshot []byte
		)
		if err := rows.Scan(&log.ID, &log.InstrumentNo, &log.InstrumentName, &at, &log.DeletedBy, &typ, &snapshot); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		log.DeletedAt = at.UTC()
		log.Type = domain.DeletionType(typ)
		out = append(out, domain.JournalEntry{Log: log, Snapshot: domain.NewSnapshot(snapshot)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return out, nil
}

// Driver identifies the backend.
func (j *Journal) Driver() string { return "postgres" }

// Close releases the connection pool.
func (j *Journal) Close() error { return j.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (j *Journal) DB() *sql.DB { return j.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
