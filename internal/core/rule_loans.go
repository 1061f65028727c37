package core

import (
	"context"
	"fmt"

	"labqms/pkg/domain"
)

// NewSingleActiveLoanRule blocks a second open loan on the same instrument.
func NewSingleActiveLoanRule() domain.Rule {
	return singleActiveLoanRule{}
}

type singleActiveLoanRule struct{}

func (singleActiveLoanRule) Name() string { return "single_active_loan" }

func (singleActiveLoanRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	open := make(map[string]int)
	var order []string
	for _, loan := range view.ListLoans() {
		if !loan.Active() {
			continue
		}
		if open[loan.InstrumentNo] == 0 {
			order = append(order, loan.InstrumentNo)
		}
		open[loan.InstrumentNo]++
	}

	res := domain.Result{}
	for _, no := range order {
		if count := open[no]; count > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "single_active_loan",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("instrument %s has %d active loans", no, count),
				Entity:   domain.EntityInstrument,
				EntityID: no,
			})
		}
	}
	return res, nil
}

// NewLoanedRequiresActiveLoanRule blocks a stored LOANED status without an open loan.
func NewLoanedRequiresActiveLoanRule() domain.Rule {
	return loanedRequiresActiveLoanRule{}
}

type loanedRequiresActiveLoanRule struct{}

func (loanedRequiresActiveLoanRule) Name() string { return "loaned_requires_active_loan" }

func (loanedRequiresActiveLoanRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, inst := range view.ListInstruments() {
		if inst.Status != domain.StatusLoaned {
			continue
		}
		if _, ok := view.ActiveLoan(inst.InstrumentNo); ok {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "loaned_requires_active_loan",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("instrument %s is marked loaned without an active loan", inst.InstrumentNo),
			Entity:   domain.EntityInstrument,
			EntityID: inst.InstrumentNo,
		})
	}
	return res, nil
}

// NewLoanInstrumentReferenceRule requires every loan to reference a known
// instrument, either live or recorded in the deletion log.
func NewLoanInstrumentReferenceRule() domain.Rule {
	return loanInstrumentReferenceRule{}
}

type loanInstrumentReferenceRule struct{}

func (loanInstrumentReferenceRule) Name() string { return "loan_instrument_reference" }

func (loanInstrumentReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := false
	for _, change := range changes {
		if change.Entity == domain.EntityLoan || (change.Entity == domain.EntityInstrument && change.Action == domain.ActionDelete) {
			touched = true
			break
		}
	}
	res := domain.Result{}
	if !touched {
		return res, nil
	}

	removed := make(map[string]struct{})
	for _, entry := range view.ListDeletionLogs() {
		removed[entry.InstrumentNo] = struct{}{}
	}
	for _, loan := range view.ListLoans() {
		if _, ok := view.FindInstrument(loan.InstrumentNo); ok {
			continue
		}
		if _, ok := removed[loan.InstrumentNo]; ok && !loan.Active() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "loan_instrument_reference",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("loan %s references unknown instrument %s", loan.ID, loan.InstrumentNo),
			Entity:   domain.EntityLoan,
			EntityID: loan.ID,
		})
	}
	return res, nil
}
