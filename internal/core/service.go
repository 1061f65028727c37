package core

import (
	"context"
	"errors"
	"time"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// Qualification sets accepted by each operation family.
var (
	instrumentManagers = []string{domain.QualInstrumentMgr, domain.QualManagementRep}
	materialManagers   = []string{domain.QualSampleMgr, domain.QualManagementRep}
	personnelManagers  = []string{domain.QualManagementRep}
)

// Service exposes the laboratory mutation operations, the evaluation pass, and
// read views over a MemoryStore.
type Service struct {
	store        *MemoryStore
	clock        Clock
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	journal      DeletionJournal
	hasher       PasswordHasher
	requirements status.Requirements
	validate     inputValidator
}

// NewService constructs a service backed by the supplied store. The store's
// clock is replaced by the service clock so transactions and audit entries agree.
func NewService(store *MemoryStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if store == nil {
		store = NewMemoryStore(NewDefaultRulesEngine())
	}
	if loc := options.location; loc != nil {
		inner := options.clock
		options.clock = ClockFunc(func() time.Time { return inner.Now().In(loc) })
	}
	store.SetNowFunc(options.clock.Now)
	return &Service{
		store:        store,
		clock:        options.clock,
		logger:       options.logger,
		audit:        options.audit,
		metrics:      options.metrics,
		tracer:       options.tracer,
		journal:      options.journal,
		hasher:       options.hasher,
		requirements: options.requirements,
		validate:     newInputValidator(),
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() *MemoryStore {
	return s.store
}

// Requirements returns the configured training-hour targets.
func (s *Service) Requirements() status.Requirements {
	return s.requirements
}

func (s *Service) now() time.Time {
	return s.clock.Now()
}

// run wraps an operation with tracing, metrics, audit, and logging.
func (s *Service) run(ctx context.Context, op string, actor Actor, fn func(ctx context.Context) (string, error)) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)

	declined := errors.Is(err, domain.ErrDeclined)
	s.metrics.Observe(ctx, op, err == nil || declined, elapsed)
	s.recordAudit(ctx, op, actor, entityID, elapsed, err)

	switch {
	case err == nil:
		s.logger.Info("operation committed", "operation", op, "actor", actor.Username, "entity_id", entityID, "duration", elapsed)
	case declined:
		s.logger.Info("operation declined", "operation", op, "actor", actor.Username, "entity_id", entityID)
	case isRejection(err):
		s.logger.Warn("operation rejected", "operation", op, "actor", actor.Username, "entity_id", entityID, "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "actor", actor.Username, "entity_id", entityID, "error", err)
	}
	return err
}

func isRejection(err error) bool {
	var rv RuleViolationError
	return errors.As(err, &rv) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyExists) ||
		errors.Is(err, domain.ErrIdentifierMismatch) ||
		errors.Is(err, domain.ErrNotArchived) ||
		errors.Is(err, domain.ErrProtectedUser) ||
		errors.Is(err, domain.ErrNoCurrentUser)
}

// mutate runs fn in a transaction and reconciles derived statuses before commit.
func (s *Service) mutate(ctx context.Context, fn func(tx *Transaction) error) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx *Transaction) error {
		if err := fn(tx); err != nil {
			return err
		}
		reconcile(tx)
		return nil
	})
}

func authorize(actor Actor, op string, tags []string) error {
	if actor.HasAny(tags...) {
		return nil
	}
	return domain.AuthorizationError{Operation: op, Required: tags}
}

func confirm(ctx context.Context, c Confirmer, message string) error {
	if c == nil || !c.Confirm(ctx, message) {
		return domain.ErrDeclined
	}
	return nil
}

// lookupInstrument reads an instrument outside a transaction for pre-checks.
func (s *Service) lookupInstrument(ctx context.Context, no string) (Instrument, error) {
	var inst Instrument
	err := s.store.View(ctx, func(v TransactionView) error {
		found, ok := v.FindInstrument(no)
		if !ok {
			return NotFoundError{Entity: EntityInstrument, Key: no}
		}
		inst = found
		return nil
	})
	return inst, err
}

// writeJournal appends to the deletion journal after commit. The in-memory
// deletion log stays authoritative; journal failures are logged only.
func (s *Service) writeJournal(ctx context.Context, entry DeletionLog, snapshot Instrument) {
	if s.journal == nil {
		return
	}
	snap, err := domain.SnapshotOf(snapshot)
	if err != nil {
		s.logger.Error("journal snapshot failed", "instrument_no", entry.InstrumentNo, "error", err)
		return
	}
	if err := s.journal.Append(ctx, JournalEntry{Log: entry, Snapshot: snap}); err != nil {
		s.logger.Error("journal append failed", "driver", s.journal.Driver(), "instrument_no", entry.InstrumentNo, "error", err)
	}
}
