package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"labqms/internal/infra/persistence/postgres/testutil"
	"labqms/pkg/domain"
)

func openStubJournal(t *testing.T) (*Journal, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	conn.Unique["deletion_journal"] = "id"
	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driverName, dsn
		return db, nil
	})
	t.Cleanup(restore)
	j, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if gotDriver != "pgx" || gotDSN != defaultDSN {
		t.Fatalf("unexpected open args %s %s", gotDriver, gotDSN)
	}
	return j, conn
}

func TestJournalAppendAndList(t *testing.T) {
	ctx := context.Background()
	j, conn := openStubJournal(t)
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS deletion_journal") {
		t.Fatalf("expected DDL first, got %v", conn.Execs)
	}

	at := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	snap, err := domain.SnapshotOf(domain.Instrument{InstrumentNo: "INST-005", InstrumentName: "離心機"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	soft := domain.JournalEntry{Log: domain.DeletionLog{ID: "s1", InstrumentNo: "INST-005", InstrumentName: "離心機", DeletedAt: at, DeletedBy: "王儀管", Type: domain.SoftDelete}, Snapshot: snap}
	hard := domain.JournalEntry{Log: domain.DeletionLog{ID: "h1", InstrumentNo: "INST-005", InstrumentName: "離心機", DeletedAt: at.Add(time.Minute), DeletedBy: "王儀管", Type: domain.HardDelete}}
	for _, e := range []domain.JournalEntry{soft, hard} {
		if err := j.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Log.ID, err)
		}
	}
	if err := j.Append(ctx, soft); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	if rows := len(conn.Tables["deletion_journal"]); rows != 2 {
		t.Fatalf("expected 2 committed rows, got %d", rows)
	}

	got, err := j.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Log.ID != "s1" || got[1].Log.Type != domain.HardDelete {
		t.Fatalf("unexpected entries %+v", got)
	}
	if !got[0].Log.DeletedAt.Equal(at) {
		t.Fatalf("deleted_at mismatch %v", got[0].Log.DeletedAt)
	}
	var inst domain.Instrument
	if err := got[0].Snapshot.Decode(&inst); err != nil || inst.InstrumentName != "離心機" {
		t.Fatalf("snapshot lost: %+v %v", inst, err)
	}
	if !got[1].Snapshot.IsEmpty() {
		t.Fatalf("expected empty snapshot on hard delete row")
	}
	if j.Driver() != "postgres" || j.DB() == nil {
		t.Fatalf("unexpected metadata")
	}
}

func TestJournalCommitFailureLeavesNoRow(t *testing.T) {
	j, conn := openStubJournal(t)
	conn.FailCommit = true
	err := j.Append(context.Background(), domain.JournalEntry{Log: domain.DeletionLog{ID: "x", Type: domain.SoftDelete}})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
	if len(conn.Tables["deletion_journal"]) != 0 {
		t.Fatalf("row leaked after failed commit")
	}
}

func TestOpenPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(context.Background(), "postgres://example/labqms"); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}
