package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"labqms/internal/core"
)

func TestNewLoggerLevels(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("expected warn level")
	}
	if _, err := NewLogger(LogConfig{}); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := NewLogger(LogConfig{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestZapLoggerPassesKeyValues(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(obs))
	l.Info("instrument archived", "instrument", "INST-003", "actor", "admin")
	l.Warn("rejected", "operation", "hard_delete_instrument")
	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	first := logs.All()[0]
	if first.ContextMap()["instrument"] != "INST-003" || first.Level != zapcore.InfoLevel {
		t.Fatalf("unexpected entry %+v", first)
	}
	NewZapLogger(nil).Error("dropped")
}

func TestPrometheusRecorderExposition(t *testing.T) {
	rec := NewPrometheusRecorder()
	ctx := context.Background()
	rec.Observe(ctx, "issue_loan", true, 3*time.Millisecond)
	rec.Observe(ctx, "issue_loan", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)
	for _, want := range []string{
		`labqms_operations_total{operation="issue_loan",status="success"} 1`,
		`labqms_operations_total{operation="issue_loan",status="error"} 1`,
		`labqms_operation_duration_seconds_count{operation="issue_loan"} 2`,
		"go_goroutines",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestZapTracerAndAuditRecorder(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(obs)
	tracer := NewZapTracer(l)
	_, span := tracer.Start(context.Background(), "archive_instrument")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "hard_delete_instrument")
	span.End(errors.New("blocked"))

	spans := logs.FilterLoggerName("trace").All()
	if len(spans) != 2 || spans[0].Level != zapcore.DebugLevel || spans[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected spans %+v", spans)
	}
	if spans[1].ContextMap()["operation"] != "hard_delete_instrument" {
		t.Fatalf("missing operation field %+v", spans[1].ContextMap())
	}

	audit := NewZapAuditRecorder(l)
	audit.Record(context.Background(), core.AuditEntry{
		Operation: "delete_user",
		Entity:    core.EntityUser,
		Action:    core.ActionDelete,
		EntityID:  "tech_a",
		Actor:     "admin",
		Status:    core.AuditStatusError,
		Error:     "forbidden",
	})
	entries := logs.FilterLoggerName("audit").All()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["entity_id"] != "tech_a" || fields["error"] != "forbidden" || fields["status"] != "error" {
		t.Fatalf("unexpected audit fields %+v", fields)
	}
}
