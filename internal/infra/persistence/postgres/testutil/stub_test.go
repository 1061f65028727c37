package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubConnTransactionsAndAppendOnly(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.Unique["events"] = "id"

	insert := "INSERT INTO events (id, kind) VALUES ($1,$2)"
	tx, err := conn.BeginTx(ctx, driver.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "e1"}, {Value: "A"}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(conn.Tables["events"]) != 0 {
		t.Fatalf("row visible before commit")
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "e1"}, {Value: "B"}}); err != nil {
		t.Fatalf("insert outside tx: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "e1"}, {Value: "C"}}); err == nil {
		t.Fatalf("expected unique violation")
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM events WHERE id=$1", []driver.NamedValue{{Value: "e1"}}); err == nil {
		t.Fatalf("expected delete to be refused")
	}

	rows, err := conn.QueryContext(ctx, "SELECT id, kind FROM events ORDER BY seq", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if dest[0] != "e1" || dest[1] != "B" {
		t.Fatalf("unexpected row %v", dest)
	}
}
