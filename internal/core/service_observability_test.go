package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"labqms/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	ended []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logLine struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	lines []logLine
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) add(level, msg string, args []any) {
	l.lines = append(l.lines, logLine{level: level, msg: msg, args: args})
}

func (l *captureLogger) count(level, msg string) int {
	n := 0
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			n++
		}
	}
	return n
}

type failingJournal struct{}

func (failingJournal) Append(context.Context, JournalEntry) error { return errors.New("disk full") }
func (failingJournal) List(context.Context) ([]JournalEntry, error) {
	return nil, nil
}
func (failingJournal) Driver() string { return "failing" }
func (failingJournal) Close() error   { return nil }

var observedManager = Actor{Username: "inst_mgr", Name: "王儀管", Qualifications: []string{domain.QualInstrumentMgr}}

func newObservedService(opts ...ServiceOption) *Service {
	now := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	opts = append([]ServiceOption{WithClock(ClockFunc(func() time.Time { return now }))}, opts...)
	svc := NewInMemoryService(NewDefaultRulesEngine(), opts...)
	_, _ = svc.store.RunInTransaction(context.Background(), func(tx *Transaction) error {
		_, err := tx.CreateInstrument(Instrument{
			InstrumentNo:        "INST-900",
			InstrumentName:      "校正用砝碼組",
			Status:              domain.StatusNormal,
			CalibrationCycle:    12,
			NextCalibrationDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		return err
	})
	return svc
}

func TestServiceObservabilityHooks(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	svc := newObservedService(WithAuditRecorder(audit), WithMetricsRecorder(metrics), WithTracer(tracer), WithLogger(logger))

	if _, _, err := svc.AddMaintenanceRecord(ctx, observedManager, "INST-900", MaintenanceRecord{
		Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), Description: "清潔",
	}); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	if !audit.has("add_maintenance", AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == "INST-900" && e.Actor == "inst_mgr" && e.Entity == EntityInstrument
	}) {
		t.Fatalf("expected success audit entry, got %+v", audit.entries)
	}
	if !metrics.has("add_maintenance", true) {
		t.Fatalf("expected success metric")
	}

	if _, _, err := svc.ArchiveInstrument(ctx, observedManager, "INST-900", domain.Declined()); !errors.Is(err, domain.ErrDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	if !audit.has("archive_instrument", AuditStatusDeclined, nil) {
		t.Fatalf("declined confirmation should be audited as declined")
	}
	if !metrics.has("archive_instrument", true) {
		t.Fatalf("declined confirmation is not a failure metric")
	}
	if logger.count("info", "operation declined") != 1 {
		t.Fatalf("expected one declined log line, got %+v", logger.lines)
	}

	if _, _, err := svc.AddMaintenanceRecord(ctx, observedManager, "INST-404", MaintenanceRecord{
		Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), Description: "x",
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !audit.has("add_maintenance", AuditStatusError, func(e AuditEntry) bool { return strings.Contains(e.Error, "INST-404") }) {
		t.Fatalf("expected error audit entry")
	}
	if !metrics.has("add_maintenance", false) {
		t.Fatalf("expected failure metric")
	}
	if logger.count("warn", "operation rejected") != 1 {
		t.Fatalf("not-found should be logged as a rejection")
	}

	var failed bool
	for _, span := range tracer.ended {
		if span.op == "add_maintenance" && span.err != nil {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("expected a failed add_maintenance span")
	}
}

func TestJournalFailureDoesNotFailArchive(t *testing.T) {
	logger := &captureLogger{}
	svc := newObservedService(WithDeletionJournal(failingJournal{}), WithLogger(logger))

	inst, _, err := svc.ArchiveInstrument(context.Background(), observedManager, "INST-900", domain.Confirmed())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !inst.Archived() {
		t.Fatalf("expected archived instrument")
	}
	if logger.count("error", "journal append failed") != 1 {
		t.Fatalf("journal failure should be logged, got %+v", logger.lines)
	}
	logs, _ := svc.DeletionLogs(context.Background())
	if len(logs) != 1 {
		t.Fatalf("deletion log stays authoritative, got %+v", logs)
	}
}

func TestReconcileAuditsOnlyWhenSomethingChanged(t *testing.T) {
	audit := &captureAuditRecorder{}
	now := time.Date(2024, time.December, 10, 9, 0, 0, 0, time.UTC)
	svc := newObservedService(WithAuditRecorder(audit))
	svc.clock = ClockFunc(func() time.Time { return now })
	svc.store.SetNowFunc(svc.clock.Now)

	transitions, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(transitions) != 1 || transitions[0].Key != "INST-900" || transitions[0].To != string(domain.StatusPendingCalibration) {
		t.Fatalf("unexpected transitions %+v", transitions)
	}
	if !strings.Contains(transitions[0].Reason, "22 days") {
		t.Fatalf("reason should carry the remaining days, got %q", transitions[0].Reason)
	}
	if _, err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	n := 0
	for _, e := range audit.entries {
		if e.Operation == "reconcile" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected one reconcile audit entry, got %d", n)
	}
}
