package core

import (
	"context"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// IssueLoan opens a loan on an instrument and marks it LOANED. The loan lives
// only in the global loan list; a second open loan on the same instrument is
// blocked by the single_active_loan rule.
func (s *Service) IssueLoan(ctx context.Context, actor Actor, no string, in LoanInput) (LoanRecord, Result, error) {
	var loan LoanRecord
	var res Result
	err := s.run(ctx, "issue_loan", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "issue_loan", instrumentManagers); err != nil {
			return no, err
		}
		in.LoanDate = status.DateOf(in.LoanDate)
		in.ExpectedReturnDate = status.DateOf(in.ExpectedReturnDate)
		if err := s.validate.Check(in); err != nil {
			return no, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			inst, ok := tx.View().FindInstrument(no)
			if !ok {
				return NotFoundError{Entity: EntityInstrument, Key: no}
			}
			if inst.Archived() {
				return domain.ValidationError{Fields: []domain.FieldError{{Field: "InstrumentNo", Rule: "archived"}}}
			}
			loan = tx.AppendLoan(LoanRecord{
				InstrumentNo:       no,
				InstrumentName:     inst.InstrumentName,
				CustomerName:       in.CustomerName,
				Borrower:           in.Borrower,
				EmployeeID:         in.EmployeeID,
				LoanType:           in.LoanType,
				LoanDate:           in.LoanDate,
				ExpectedReturnDate: in.ExpectedReturnDate,
				Purpose:            in.Purpose,
				Status:             domain.LoanActive,
			})
			_, err := tx.UpdateInstrument(no, func(i *Instrument) error {
				i.Status = domain.StatusLoaned
				return nil
			})
			return err
		})
		return no, err
	})
	if err != nil {
		return LoanRecord{}, res, err
	}
	return loan, res, nil
}

// ConfirmLoanReturn closes an open loan. The actor only needs to be identified;
// the return date is the clock's current date and confirmedBy is the actor's
// name. The instrument goes back to NORMAL unless it was removed or archived
// in the meantime.
func (s *Service) ConfirmLoanReturn(ctx context.Context, actor Actor, loanID string, c Confirmer) (LoanRecord, Result, error) {
	var loan LoanRecord
	var res Result
	err := s.run(ctx, "return_loan", actor, func(ctx context.Context) (string, error) {
		if !actor.Identified() {
			return loanID, domain.ErrNoCurrentUser
		}
		if err := confirm(ctx, c, "確認進行歸還手續？"); err != nil {
			return loanID, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			updated, err := tx.UpdateLoan(loanID, func(l *LoanRecord) error {
				if !l.Active() {
					return domain.ValidationError{Fields: []domain.FieldError{{Field: "Status", Rule: "returned"}}}
				}
				l.Status = domain.LoanReturned
				l.ActualReturnDate = status.DateOf(tx.now)
				l.ConfirmedBy = actorName(actor)
				return nil
			})
			if err != nil {
				return err
			}
			loan = updated
			inst, ok := tx.View().FindInstrument(updated.InstrumentNo)
			if !ok || inst.Archived() {
				return nil
			}
			_, err = tx.UpdateInstrument(inst.InstrumentNo, func(i *Instrument) error {
				i.Status = domain.StatusNormal
				return nil
			})
			return err
		})
		return loanID, err
	})
	if err != nil {
		return LoanRecord{}, res, err
	}
	return loan, res, nil
}
