package blob

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{FSRoot: filepath.Join(t.TempDir(), "docs")})
	if err != nil || st.Driver() != DriverFilesystem {
		t.Fatalf("default driver: %v %v", st, err)
	}
	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v %v", mem, err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestDriversShareContract(t *testing.T) {
	ctx := context.Background()
	fsStore, err := Open(ctx, Config{FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for _, st := range []Store{NewMemory(), NewMockS3ForTests(), fsStore} {
		if _, err := st.Put(ctx, "loan-slips/x.html", strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("%s put: %v", st.Driver(), err)
		}
		if _, err := st.Put(ctx, "loan-slips/x.html", strings.NewReader("y"), PutOptions{}); !errors.Is(err, ErrExists) {
			t.Fatalf("%s duplicate: %v", st.Driver(), err)
		}
		if _, err := st.Head(ctx, "loan-slips/none.html"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s missing: %v", st.Driver(), err)
		}
	}
	if _, ok := NewMockS3ForTests().(Presigner); !ok {
		t.Fatalf("s3 store should presign")
	}
}
