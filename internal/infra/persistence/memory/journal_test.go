package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"labqms/pkg/domain"
)

func TestJournalAppendListClose(t *testing.T) {
	ctx := context.Background()
	j := NewJournal()
	snap, err := domain.SnapshotOf(domain.Instrument{InstrumentNo: "INST-1"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := domain.DeletionLog{ID: "d1", InstrumentNo: "INST-1", Type: domain.SoftDelete, DeletedAt: time.Now().UTC()}
	second := domain.DeletionLog{ID: "d2", InstrumentNo: "INST-1", Type: domain.HardDelete}
	if err := j.Append(ctx, domain.JournalEntry{Log: first, Snapshot: snap}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(ctx, domain.JournalEntry{Log: second}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := j.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Log.ID != "d1" || entries[1].Log.ID != "d2" {
		t.Fatalf("entries out of order: %+v", entries)
	}
	var inst domain.Instrument
	if err := entries[0].Snapshot.Decode(&inst); err != nil || inst.InstrumentNo != "INST-1" {
		t.Fatalf("snapshot round trip failed: %+v %v", inst, err)
	}
	if !entries[1].Snapshot.IsEmpty() {
		t.Fatalf("expected empty snapshot")
	}
	if j.Driver() != "memory" {
		t.Fatalf("unexpected driver %s", j.Driver())
	}

	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := j.Append(ctx, domain.JournalEntry{Log: first}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := j.List(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
