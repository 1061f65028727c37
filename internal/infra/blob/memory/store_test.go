package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"labqms/internal/blob/core"
)

func TestStoreWriteOnceAndChecksum(t *testing.T) {
	store := New()
	fixed := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	meta := map[string]string{"instrument": "INST-014"}
	info, err := store.Put(ctx, "loan-slips/2024/l1.html", bytes.NewReader([]byte("<html>")), core.PutOptions{ContentType: "text/html", Metadata: meta})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	// sha256("<html>")
	if len(info.Checksum) != 64 || !info.StoredAt.Equal(fixed) || info.Size != 6 {
		t.Fatalf("unexpected info %+v", info)
	}
	meta["instrument"] = "mutated"
	if _, err := store.Put(ctx, "loan-slips/2024/l1.html", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, body, err := store.Get(ctx, "loan-slips/2024/l1.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "<html>" || got.Metadata["instrument"] != "INST-014" {
		t.Fatalf("unexpected document %q %+v", data, got)
	}

	if _, err := store.Put(ctx, "training-plans/2024.xlsx", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "loan-slips/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	all, _ := store.List(ctx, "")
	if len(all) != 2 || all[0].Key != "loan-slips/2024/l1.html" {
		t.Fatalf("list order: %+v", all)
	}
}

func TestStoreMissingAndInvalid(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false")
	}
	if _, err := store.Put(ctx, "../escape", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStorePutReadError(t *testing.T) {
	if _, err := New().Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}
