package core

import (
	"context"
	"errors"
	"time"

	"labqms/pkg/domain"
)

// Logger is the structured logging surface used by the service. Arguments are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus captures whether an audited operation succeeded.
type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusError    AuditStatus = "error"
	AuditStatusDeclined AuditStatus = "declined" // operator cancelled
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Actor     string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives an entry for every mutation attempt.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation latency and outcome.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan ends a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type operationMeta struct {
	entity EntityType
	action Action
}

var operationCatalog = map[string]operationMeta{
	"create_instrument":      {EntityInstrument, ActionCreate},
	"save_instrument":        {EntityInstrument, ActionUpdate},
	"archive_instrument":     {EntityInstrument, ActionUpdate},
	"restore_instrument":     {EntityInstrument, ActionUpdate},
	"hard_delete_instrument": {EntityInstrument, ActionDelete},
	"add_calibration":        {EntityInstrument, ActionUpdate},
	"add_maintenance":        {EntityInstrument, ActionUpdate},
	"issue_loan":             {EntityLoan, ActionCreate},
	"return_loan":            {EntityLoan, ActionUpdate},
	"save_material":          {EntityMaterial, ActionUpdate},
	"delete_material":        {EntityMaterial, ActionDelete},
	"create_user":            {EntityUser, ActionCreate},
	"save_user":              {EntityUser, ActionUpdate},
	"delete_user":            {EntityUser, ActionDelete},
	"add_training":           {EntityUser, ActionUpdate},
	"reconcile":              {EntityInstrument, ActionUpdate},
}

func (s *Service) recordAudit(ctx context.Context, operation string, actor Actor, entityID string, duration time.Duration, err error) {
	meta, ok := operationCatalog[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Actor:     actor.Username,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	}
	switch {
	case errors.Is(err, domain.ErrDeclined):
		entry.Status = AuditStatusDeclined
	case err != nil:
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
