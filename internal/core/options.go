package core

import (
	"time"

	"labqms/internal/auth"
	"labqms/internal/status"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ServiceOption customises a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock        Clock
	location     *time.Location
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	journal      DeletionJournal
	hasher       PasswordHasher
	requirements status.Requirements
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:        ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:       noopLogger{},
		audit:        noopAuditRecorder{},
		metrics:      noopMetricsRecorder{},
		tracer:       noopTracer{},
		hasher:       auth.NewBcryptHasher(),
		requirements: status.DefaultRequirements(),
	}
}

// WithClock sets the clock used for mutations, the evaluation pass, and audit timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the operation audit sink.
func WithAuditRecorder(rec AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithDeletionJournal sets the write-only archive/delete journal.
func WithDeletionJournal(journal DeletionJournal) ServiceOption {
	return func(o *serviceOptions) {
		o.journal = journal
	}
}

// WithPasswordHasher replaces the bcrypt hasher.
func WithPasswordHasher(h PasswordHasher) ServiceOption {
	return func(o *serviceOptions) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithLocation reads the clock in loc, so calendar-date checks use the
// laboratory's local date rather than the UTC one.
func WithLocation(loc *time.Location) ServiceOption {
	return func(o *serviceOptions) {
		o.location = loc
	}
}

// WithTrainingRequirements sets the yearly training-hour targets.
func WithTrainingRequirements(req status.Requirements) ServiceOption {
	return func(o *serviceOptions) {
		o.requirements = req
	}
}
