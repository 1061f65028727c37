// Package domain defines the laboratory quality-management entities, value
// types, and rule evaluation primitives used by labqms.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record held in the state store.
type EntityType string

// Supported entity type identifiers used in Change records and transitions.
const (
	// EntityInstrument identifies an instrument under calibration management.
	EntityInstrument EntityType = "instrument"
	// EntityMaterial identifies a reference material or consumable lot.
	EntityMaterial EntityType = "material"
	// EntityUser identifies a person record.
	EntityUser EntityType = "user"
	// EntityLoan identifies an instrument loan record.
	EntityLoan EntityType = "loan"
	// EntityDeletionLog identifies an archive/delete audit entry.
	EntityDeletionLog EntityType = "deletion_log"
)

// InstrumentStatus is the stored or effective status of an instrument.
type InstrumentStatus string

// Instrument statuses. PendingCalibration and Loaned are derived overlays that
// are also written back to the stored status by the evaluation pass and the
// loan operations.
const (
	StatusNormal             InstrumentStatus = "廠內"
	StatusRepairing          InstrumentStatus = "維修"
	StatusCalibrating        InstrumentStatus = "送校"
	StatusScrapped           InstrumentStatus = "報廢"
	StatusPendingCalibration InstrumentStatus = "待送校"
	StatusLoaned             InstrumentStatus = "出借"
	StatusArchived           InstrumentStatus = "封存"
)

// InstrumentStatuses lists every valid instrument status.
var InstrumentStatuses = []InstrumentStatus{
	StatusNormal,
	StatusRepairing,
	StatusCalibrating,
	StatusScrapped,
	StatusPendingCalibration,
	StatusLoaned,
	StatusArchived,
}

// Valid reports whether s is a known instrument status.
func (s InstrumentStatus) Valid() bool {
	for _, known := range InstrumentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CalibrationResult records the verdict on a calibration certificate.
type CalibrationResult string

const (
	CalibrationPass CalibrationResult = "合格"
	CalibrationFail CalibrationResult = "不合格"
)

// LoanStatus tracks whether a loan is still open.
type LoanStatus string

const (
	LoanActive   LoanStatus = "出借中"
	LoanReturned LoanStatus = "已歸還"
)

// LoanType distinguishes loans to an organisation from loans to a person.
type LoanType string

const (
	LoanToUnit       LoanType = "單位"
	LoanToIndividual LoanType = "個人"
)

// MaterialStatus is the stored status of a material lot.
type MaterialStatus string

const (
	MaterialNormal  MaterialStatus = "正常"
	MaterialExpired MaterialStatus = "已過期"
)

// TrainingType splits training hours into internal and external courses.
type TrainingType string

const (
	TrainingInternal TrainingType = "內訓"
	TrainingExternal TrainingType = "外訓"
)

// DeletionType distinguishes archival from permanent removal.
type DeletionType string

const (
	SoftDelete DeletionType = "SOFT_DELETE"
	HardDelete DeletionType = "HARD_DELETE"
)

// CalibrationRecord is an immutable calibration certificate entry.
type CalibrationRecord struct {
	ID            string            `json:"id"`
	Date          time.Time         `json:"date"`
	Vendor        string            `json:"vendor"`
	CertificateNo string            `json:"certificateNo"`
	Result        CalibrationResult `json:"result"`
	NextDate      time.Time         `json:"nextDate"`
}

// MaintenanceRecord is an immutable repair/maintenance entry.
type MaintenanceRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	StatusBefore string    `json:"statusBefore"`
	Result       string    `json:"result"`
	AcceptedBy   string    `json:"acceptedBy"`
	Cost         int64     `json:"cost"`
	Notes        string    `json:"notes"`
}

// LoanRecord tracks one instrument loan from issue to return.
type LoanRecord struct {
	ID                 string     `json:"id"`
	InstrumentNo       string     `json:"instrumentNo"`
	InstrumentName     string     `json:"instrumentName"`
	CustomerName       string     `json:"customerName"`
	Borrower           string     `json:"borrower"`
	EmployeeID         string     `json:"employeeId"`
	LoanType           LoanType   `json:"loanType"`
	LoanDate           time.Time  `json:"loanDate"`
	ExpectedReturnDate time.Time  `json:"expectedReturnDate"`
	ActualReturnDate   time.Time  `json:"actualReturnDate,omitzero"`
	ConfirmedBy        string     `json:"confirmedBy,omitempty"`
	Purpose            string     `json:"purpose"`
	Status             LoanStatus `json:"status"`
}

// Active reports whether the loan has not been returned yet.
func (l LoanRecord) Active() bool { return l.Status == LoanActive }

// Instrument is a physical asset under calibration management. Loan records
// are owned by the global loan list and looked up by InstrumentNo.
type Instrument struct {
	InstrumentNo        string              `json:"instrumentNo"`
	InstrumentName      string              `json:"instrumentName"`
	Brand               string              `json:"brand"`
	Model               string              `json:"model"`
	FactoryNo           string              `json:"factoryNo"`
	PurchaseDate        time.Time           `json:"purchaseDate,omitzero"`
	PurchaseAmount      int64               `json:"purchaseAmount"`
	Status              InstrumentStatus    `json:"status"`
	CalibrationCycle    int                 `json:"calibrationCycle"`
	LastCalibrationDate time.Time           `json:"lastCalibrationDate,omitzero"`
	NextCalibrationDate time.Time           `json:"nextCalibrationDate,omitzero"`
	Vendor              string              `json:"vendor"`
	Custodian           string              `json:"custodian"`
	Specification       string              `json:"specification,omitempty"`
	AcceptanceCriteria  string              `json:"acceptanceCriteria,omitempty"`
	Accessories         string              `json:"accessories,omitempty"`
	Notes               string              `json:"notes,omitempty"`
	CalibrationLogs     []CalibrationRecord `json:"calibrationLogs"`
	MaintenanceLogs     []MaintenanceRecord `json:"maintenanceLogs"`
	DeletedAt           time.Time           `json:"deletedAt,omitzero"`
	DeletedBy           string              `json:"deletedBy,omitempty"`
}

// Archived reports whether the instrument has been soft-deleted.
func (i Instrument) Archived() bool { return i.Status == StatusArchived }

// Material is a consumable or reference standard lot.
type Material struct {
	Lot          string         `json:"lot"`
	Name         string         `json:"name"`
	PurchaseDate time.Time      `json:"purchaseDate,omitzero"`
	ExpiryDate   time.Time      `json:"expiryDate"`
	Stock        int            `json:"stock"`
	Status       MaterialStatus `json:"status"`
}

// TrainingRecord is an immutable course attendance entry.
type TrainingRecord struct {
	ID             string          `json:"id"`
	Type           TrainingType    `json:"type"`
	CourseName     string          `json:"courseName"`
	Provider       string          `json:"provider"`
	Hours          decimal.Decimal `json:"hours"`
	Date           time.Time       `json:"date"`
	ExpiryDate     time.Time       `json:"expiryDate"`
	RetrainingDate time.Time       `json:"retrainingDate"`
}

// User is a person record. Only the password hash is ever held.
type User struct {
	Username       string           `json:"username"`
	Name           string           `json:"name"`
	PasswordHash   string           `json:"-"`
	Qualifications []string         `json:"qualifications"`
	TrainingLogs   []TrainingRecord `json:"trainingLogs"`
}

// Vendor is a calibration or supply vendor from the seeded catalog.
type Vendor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// DeletionLog is a write-only audit entry for archived or removed instruments.
type DeletionLog struct {
	ID             string       `json:"id"`
	InstrumentNo   string       `json:"instrumentNo"`
	InstrumentName string       `json:"instrumentName"`
	DeletedAt      time.Time    `json:"deletedAt"`
	DeletedBy      string       `json:"deletedBy"`
	Type           DeletionType `json:"type"`
}

// StatusTransition records a stored status rewritten by the evaluation pass.
type StatusTransition struct {
	Entity EntityType `json:"entity"`
	Key    string     `json:"key"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	At     time.Time  `json:"at"`
	Reason string     `json:"reason"`
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Key    string
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported modifications captured in the audit trail.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
