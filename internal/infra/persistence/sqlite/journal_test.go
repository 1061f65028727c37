package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"labqms/pkg/domain"
)

func TestJournalPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	at := time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)
	snap, err := domain.SnapshotOf(domain.Instrument{InstrumentNo: "INST-010", InstrumentName: "震盪培養箱"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	entries := []domain.JournalEntry{
		{Log: domain.DeletionLog{ID: "a", InstrumentNo: "INST-010", InstrumentName: "震盪培養箱", DeletedAt: at, DeletedBy: "王儀管", Type: domain.SoftDelete}, Snapshot: snap},
		{Log: domain.DeletionLog{ID: "b", InstrumentNo: "INST-010", InstrumentName: "震盪培養箱", DeletedAt: at.Add(time.Hour), DeletedBy: "王儀管", Type: domain.HardDelete}},
	}
	for _, e := range entries {
		if err := j.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Log.ID, err)
		}
	}
	if err := j.Append(ctx, entries[0]); err == nil {
		t.Fatalf("duplicate id should be rejected")
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if reopened.Path() != path || reopened.Driver() != "sqlite" {
		t.Fatalf("unexpected metadata %s %s", reopened.Path(), reopened.Driver())
	}
	got, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for i := range entries {
		want, have := entries[i].Log, got[i].Log
		if !have.DeletedAt.Equal(want.DeletedAt) {
			t.Fatalf("row %d deleted_at %v, want %v", i, have.DeletedAt, want.DeletedAt)
		}
		have.DeletedAt = want.DeletedAt
		if have != want {
			t.Fatalf("row %d differs:\n%+v\n%+v", i, have, want)
		}
	}
	var inst domain.Instrument
	if err := got[0].Snapshot.Decode(&inst); err != nil || inst.InstrumentName != "震盪培養箱" {
		t.Fatalf("snapshot lost: %+v %v", inst, err)
	}
	if !got[1].Snapshot.IsEmpty() {
		t.Fatalf("expected empty snapshot for second row")
	}
}

func TestJournalInMemory(t *testing.T) {
	j, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = j.Close() }()
	if err := j.Append(context.Background(), domain.JournalEntry{Log: domain.DeletionLog{ID: "x", InstrumentNo: "I", Type: domain.SoftDelete}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, err := j.List(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("list: %v %d", err, len(rows))
	}
}
