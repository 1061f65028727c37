package core

import "labqms/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Instrument         = domain.Instrument
	InstrumentStatus   = domain.InstrumentStatus
	CalibrationRecord  = domain.CalibrationRecord
	MaintenanceRecord  = domain.MaintenanceRecord
	LoanRecord         = domain.LoanRecord
	Material           = domain.Material
	User               = domain.User
	TrainingRecord     = domain.TrainingRecord
	Vendor             = domain.Vendor
	DeletionLog        = domain.DeletionLog
	StatusTransition   = domain.StatusTransition
	Actor              = domain.Actor
	Confirmer          = domain.Confirmer
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleView           = domain.RuleView
	NotFoundError      = domain.NotFoundError
	DuplicateError     = domain.DuplicateError
	DeletionJournal    = domain.DeletionJournal
	JournalEntry       = domain.JournalEntry
)

const (
	EntityInstrument  = domain.EntityInstrument
	EntityMaterial    = domain.EntityMaterial
	EntityUser        = domain.EntityUser
	EntityLoan        = domain.EntityLoan
	EntityDeletionLog = domain.EntityDeletionLog

	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog

	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}
