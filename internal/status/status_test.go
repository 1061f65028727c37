package status

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"labqms/pkg/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextCalibrationDateIsOneDayBeforeAnniversary(t *testing.T) {
	got := NextCalibrationDate(date(2024, 3, 15), 12)
	if !got.Equal(date(2025, 3, 14)) {
		t.Fatalf("expected 2025-03-14, got %s", got.Format(time.DateOnly))
	}
	got = NextCalibrationDate(date(2024, 1, 31), 1)
	if !got.Equal(date(2024, 3, 1)) {
		t.Fatalf("expected month overflow to normalize to 2024-03-01, got %s", got.Format(time.DateOnly))
	}
}

func TestCalibrationDiffDaysRoundsUp(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		next time.Time
		want int
	}{
		{date(2024, 6, 2), 1},
		{date(2024, 7, 1), 30},
		{date(2024, 7, 2), 31},
		{date(2024, 6, 1), 0},
		{date(2024, 5, 30), -2},
	}
	for _, tc := range cases {
		if got := CalibrationDiffDays(tc.next, now); got != tc.want {
			t.Fatalf("diff to %s: expected %d, got %d", tc.next.Format(time.DateOnly), tc.want, got)
		}
	}
}

func TestCalibrationDueWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	if !CalibrationDue(domain.StatusNormal, date(2024, 7, 1), now) {
		t.Fatalf("30 days out should be due")
	}
	if CalibrationDue(domain.StatusNormal, date(2024, 7, 2), now) {
		t.Fatalf("31 days out should not be due")
	}
	if CalibrationDue(domain.StatusNormal, date(2024, 5, 20), now) {
		t.Fatalf("past date should not be pending")
	}
	if CalibrationDue(domain.StatusRepairing, date(2024, 6, 10), now) {
		t.Fatalf("only NORMAL instruments become pending")
	}
	if CalibrationDue(domain.StatusNormal, time.Time{}, now) {
		t.Fatalf("empty date should not be due")
	}
}

func TestCalibrationOverdueUsesCalendarDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	if CalibrationOverdue(date(2024, 6, 1), now) {
		t.Fatalf("expiring today is not yet overdue")
	}
	if !CalibrationOverdue(date(2024, 5, 31), now) {
		t.Fatalf("yesterday should be overdue")
	}
	if CalibrationOverdue(time.Time{}, now) {
		t.Fatalf("empty date is never overdue")
	}
}

func TestMaterialStatusAt(t *testing.T) {
	now := date(2024, 6, 1)
	if MaterialStatusAt(date(2024, 5, 31), now) != domain.MaterialExpired {
		t.Fatalf("expected expired")
	}
	if MaterialStatusAt(date(2024, 6, 1), now) != domain.MaterialNormal {
		t.Fatalf("expiring today should still be normal")
	}
}

func TestLoanOverdue(t *testing.T) {
	loan := domain.LoanRecord{Status: domain.LoanActive, ExpectedReturnDate: date(2024, 6, 1)}
	if LoanOverdue(loan, time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("due today is not overdue")
	}
	if !LoanOverdue(loan, date(2024, 6, 2)) {
		t.Fatalf("expected overdue")
	}
	loan.Status = domain.LoanReturned
	if LoanOverdue(loan, date(2024, 7, 1)) {
		t.Fatalf("returned loans are never overdue")
	}
}

func TestInstrumentDisplayPrecedence(t *testing.T) {
	now := date(2024, 6, 1)
	inst := domain.Instrument{InstrumentNo: "INST-001", Status: domain.StatusNormal, NextCalibrationDate: date(2024, 6, 20)}

	if d := InstrumentDisplay(inst, nil, now); d.Status != domain.StatusPendingCalibration {
		t.Fatalf("expected pending overlay, got %s", d.Status)
	}

	loan := domain.LoanRecord{Status: domain.LoanActive, ExpectedReturnDate: date(2024, 5, 30)}
	d := InstrumentDisplay(inst, &loan, now)
	if d.Status != domain.StatusLoaned || !d.LoanOverdue || d.Label != BadgeLoanOverdue {
		t.Fatalf("expected overdue loan display, got %+v", d)
	}

	inst.Status = domain.StatusArchived
	if d := InstrumentDisplay(inst, &loan, now); d.Status != domain.StatusArchived || d.LoanOverdue {
		t.Fatalf("archived should win, got %+v", d)
	}

	inst.Status = domain.StatusRepairing
	inst.NextCalibrationDate = date(2024, 5, 1)
	d = InstrumentDisplay(inst, nil, now)
	if d.Status != domain.StatusRepairing || !d.CalibrationExpired || d.Label != string(domain.StatusRepairing) {
		t.Fatalf("expected stored status with expired flag, got %+v", d)
	}
}

func TestTrainingComplianceGapsAndProgress(t *testing.T) {
	year := 2024
	hours := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	records := []domain.TrainingRecord{
		{Type: domain.TrainingInternal, Hours: hours("16"), Date: date(2024, 2, 1)},
		{Type: domain.TrainingInternal, Hours: hours("12.5"), Date: date(2024, 5, 1)},
		{Type: domain.TrainingInternal, Hours: hours("11.5"), Date: date(2024, 9, 1)},
		{Type: domain.TrainingExternal, Hours: hours("10"), Date: date(2024, 3, 1)},
		{Type: domain.TrainingExternal, Hours: hours("8"), Date: date(2023, 12, 31)},
	}
	c := TrainingCompliance(records, year, DefaultRequirements())
	if !c.Internal.Equal(hours("40")) || !c.External.Equal(hours("10")) {
		t.Fatalf("unexpected totals %s / %s", c.Internal, c.External)
	}
	if !c.InternalGap.IsZero() {
		t.Fatalf("expected zero internal gap, got %s", c.InternalGap)
	}
	if !c.ExternalGap.Equal(hours("2")) {
		t.Fatalf("expected external gap 2, got %s", c.ExternalGap)
	}
	if !c.InternalProgress.Equal(hours("100")) {
		t.Fatalf("expected internal progress capped at 100, got %s", c.InternalProgress)
	}
	if !c.ExternalProgress.Round(1).Equal(hours("83.3")) {
		t.Fatalf("expected external progress ~83.3, got %s", c.ExternalProgress)
	}
}

func TestTrainingComplianceZeroRequirement(t *testing.T) {
	c := TrainingCompliance(nil, 2024, Requirements{Internal: decimal.Zero, External: decimal.NewFromInt(12)})
	if !c.InternalProgress.Equal(hundred) || !c.ExternalProgress.IsZero() {
		t.Fatalf("unexpected progress %s / %s", c.InternalProgress, c.ExternalProgress)
	}
}

func TestTrainingLabelAnyStaleRecordTaintsUser(t *testing.T) {
	now := date(2024, 6, 1)
	if got := TrainingLabel(nil, now); got != LabelUnscheduled {
		t.Fatalf("expected unscheduled, got %s", got)
	}
	current := domain.TrainingRecord{ExpiryDate: date(2025, 6, 1), RetrainingDate: date(2025, 1, 1)}
	stale := domain.TrainingRecord{ExpiryDate: date(2024, 1, 1), RetrainingDate: date(2025, 1, 1)}
	if got := TrainingLabel([]domain.TrainingRecord{current}, now); got != LabelCompliant {
		t.Fatalf("expected compliant, got %s", got)
	}
	if got := TrainingLabel([]domain.TrainingRecord{current, stale}, now); got != LabelExpired {
		t.Fatalf("expected expired with one stale record, got %s", got)
	}
	retrain := domain.TrainingRecord{ExpiryDate: date(2025, 6, 1), RetrainingDate: date(2024, 5, 31)}
	if got := TrainingLabel([]domain.TrainingRecord{retrain}, now); got != LabelExpired {
		t.Fatalf("expected expired from retraining date, got %s", got)
	}
}

func TestCalibrationPlanSendMonth(t *testing.T) {
	now := date(2024, 6, 1)
	instruments := []domain.Instrument{
		{InstrumentNo: "B", NextCalibrationDate: date(2024, 3, 10)},
		{InstrumentNo: "A", NextCalibrationDate: date(2025, 1, 15)},
		{InstrumentNo: "C", NextCalibrationDate: date(2026, 5, 1)},
		{InstrumentNo: "D"},
		{InstrumentNo: "E", Status: domain.StatusArchived, NextCalibrationDate: date(2024, 8, 1)},
	}
	plan := CalibrationPlan(instruments, 2024, now)
	if len(plan) != 2 {
		t.Fatalf("expected 2 plan entries, got %+v", plan)
	}
	if plan[0].InstrumentNo != "B" || plan[0].SendMonth != 2 || plan[0].ExpiryMonth != 3 || !plan[0].Expired {
		t.Fatalf("unexpected first entry %+v", plan[0])
	}
	if plan[1].InstrumentNo != "A" || plan[1].SendMonth != 12 || plan[1].ExpiryMonth != 0 {
		t.Fatalf("unexpected cross-year entry %+v", plan[1])
	}
}

func TestDateOfReadsCalendarDateInOwnLocation(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)
	local := time.Date(2024, 6, 1, 1, 30, 0, 0, taipei)
	if got := DateOf(local); !got.Equal(date(2024, 6, 1)) {
		t.Fatalf("expected 2024-06-01, got %s", got.Format(time.DateOnly))
	}
	if got := DateOf(local.UTC()); !got.Equal(date(2024, 5, 31)) {
		t.Fatalf("the same instant in UTC is still 2024-05-31, got %s", got.Format(time.DateOnly))
	}
	if !MaterialExpired(date(2024, 5, 31), local) || MaterialExpired(date(2024, 5, 31), local.UTC()) {
		t.Fatalf("expiry should follow the calendar date of now's location")
	}
}
