// Package status derives time-dependent instrument, material, loan, and
// training states from stored fields and the current clock. Every function is
// pure; callers supply "now" explicitly.
package status

import (
	"math"
	"time"

	"labqms/pkg/domain"
)

const day = 24 * time.Hour

// PendingWindowDays is the look-ahead window for flagging an upcoming calibration.
const PendingWindowDays = 30

// BadgeLoanOverdue replaces the loaned label when the active loan is late.
const BadgeLoanOverdue = "出借逾期"

// DateOf returns the calendar date of t, read in t's own location, as
// midnight UTC.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalibrationDiffDays returns ceil((next - now) / 1 day). Partial days round
// toward the later day, so a due date later today counts as 1.
func CalibrationDiffDays(next, now time.Time) int {
	diff := next.Sub(now)
	return int(math.Ceil(float64(diff) / float64(day)))
}

// CalibrationDue reports whether a NORMAL instrument enters PENDING_CALIBRATION.
func CalibrationDue(stored domain.InstrumentStatus, next, now time.Time) bool {
	if stored != domain.StatusNormal || next.IsZero() {
		return false
	}
	diff := CalibrationDiffDays(next, now)
	return diff > 0 && diff <= PendingWindowDays
}

// CalibrationOverdue reports whether the calibration validity ended before today.
// It never changes stored status.
func CalibrationOverdue(next, now time.Time) bool {
	if next.IsZero() {
		return false
	}
	return DateOf(next).Before(DateOf(now))
}

// MaterialExpired reports whether a lot's expiry date lies before today.
func MaterialExpired(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return false
	}
	return DateOf(expiry).Before(DateOf(now))
}

// MaterialStatusAt computes the status assigned when a material is saved.
func MaterialStatusAt(expiry, now time.Time) domain.MaterialStatus {
	if MaterialExpired(expiry, now) {
		return domain.MaterialExpired
	}
	return domain.MaterialNormal
}

// LoanOverdue reports whether an active loan is past its expected return date.
func LoanOverdue(loan domain.LoanRecord, now time.Time) bool {
	if !loan.Active() || loan.ExpectedReturnDate.IsZero() {
		return false
	}
	return DateOf(now).After(DateOf(loan.ExpectedReturnDate))
}

// NextCalibrationDate returns the last day of the validity window that starts
// on date and spans cycleMonths. Month overflow normalizes forward, so
// 2024-01-31 with a one month cycle ends on 2024-03-01.
func NextCalibrationDate(date time.Time, cycleMonths int) time.Time {
	return DateOf(date).AddDate(0, cycleMonths, -1)
}

// Display is the presentation-facing status of an instrument.
type Display struct {
	Status             domain.InstrumentStatus `json:"status"`
	Label              string                  `json:"label"`
	LoanOverdue        bool                    `json:"loanOverdue"`
	CalibrationExpired bool                    `json:"calibrationExpired"`
}

// InstrumentDisplay resolves the effective status of inst. Archived wins over
// an open loan, an open loan wins over the pending-calibration overlay, and
// the stored status applies otherwise.
func InstrumentDisplay(inst domain.Instrument, active *domain.LoanRecord, now time.Time) Display {
	d := Display{
		Status:             inst.Status,
		CalibrationExpired: CalibrationOverdue(inst.NextCalibrationDate, now),
	}
	switch {
	case inst.Archived():
		d.Status = domain.StatusArchived
	case active != nil && active.Active():
		d.Status = domain.StatusLoaned
		d.LoanOverdue = LoanOverdue(*active, now)
	case CalibrationDue(inst.Status, inst.NextCalibrationDate, now):
		d.Status = domain.StatusPendingCalibration
	}
	d.Label = string(d.Status)
	if d.LoanOverdue {
		d.Label = BadgeLoanOverdue
	}
	return d
}
