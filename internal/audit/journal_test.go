package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != "memory" {
		t.Fatalf("memory: %v %v", mem, err)
	}
	_ = mem.Close()

	lite, err := Open(ctx, Config{SQLitePath: filepath.Join(t.TempDir(), "audit.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer func() { _ = lite.Close() }()
	if lite.Driver() != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", lite.Driver())
	}

	if _, err := Open(ctx, Config{Driver: "bogus"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
