package observability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"labqms/internal/core"
)

// ZapTracer emits one log line per finished span: debug on success, warn on
// error.
type ZapTracer struct {
	logger *zap.Logger
	now    func() time.Time
}

var _ core.Tracer = (*ZapTracer)(nil)

// NewZapTracer logs spans through l.
func NewZapTracer(l *zap.Logger) *ZapTracer {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapTracer{logger: l.Named("trace"), now: time.Now}
}

// Start implements core.Tracer.
func (t *ZapTracer) Start(ctx context.Context, operation string) (context.Context, core.TraceSpan) {
	return ctx, &zapSpan{tracer: t, operation: operation, started: t.now()}
}

type zapSpan struct {
	tracer    *ZapTracer
	operation string
	started   time.Time
}

func (s *zapSpan) End(err error) {
	fields := []zap.Field{
		zap.String("operation", s.operation),
		zap.Duration("duration", s.tracer.now().Sub(s.started)),
	}
	if err != nil {
		s.tracer.logger.Warn("span", append(fields, zap.String("status", "error"), zap.Error(err))...)
		return
	}
	s.tracer.logger.Debug("span", append(fields, zap.String("status", "success"))...)
}

// ZapAuditRecorder writes audit entries to a dedicated logger.
type ZapAuditRecorder struct {
	logger *zap.Logger
}

var _ core.AuditRecorder = (*ZapAuditRecorder)(nil)

// NewZapAuditRecorder logs audit entries through l under the "audit" name.
func NewZapAuditRecorder(l *zap.Logger) *ZapAuditRecorder {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapAuditRecorder{logger: l.Named("audit")}
}

// Record implements core.AuditRecorder.
func (r *ZapAuditRecorder) Record(_ context.Context, e core.AuditEntry) {
	fields := []zap.Field{
		zap.String("operation", e.Operation),
		zap.String("entity", string(e.Entity)),
		zap.String("action", string(e.Action)),
		zap.String("entity_id", e.EntityID),
		zap.String("actor", e.Actor),
		zap.String("status", string(e.Status)),
		zap.Duration("duration", e.Duration),
		zap.Time("at", e.Timestamp),
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	r.logger.Info("audit", fields...)
}
