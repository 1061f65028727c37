package core

import (
	"context"
	"fmt"
	"time"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// statuses that only dedicated operations may set or clear.
func managedStatus(s domain.InstrumentStatus) bool {
	return s == domain.StatusLoaned || s == domain.StatusArchived
}

func normalizeInstrument(inst Instrument) Instrument {
	inst.PurchaseDate = status.DateOf(inst.PurchaseDate)
	inst.LastCalibrationDate = status.DateOf(inst.LastCalibrationDate)
	inst.NextCalibrationDate = status.DateOf(inst.NextCalibrationDate)
	return inst
}

func statusChangeError(from, to domain.InstrumentStatus) error {
	return domain.ValidationError{Fields: []domain.FieldError{{
		Field: "Status",
		Rule:  fmt.Sprintf("%s->%s requires a dedicated operation", from, to),
	}}}
}

// SaveInstrument upserts the basic fields of an instrument by number. On
// update the calibration fields, logs, and archival stamps are kept from the
// stored record; a blank status keeps the stored status. LOANED and ARCHIVED
// can only be entered or left through the loan and archive operations.
func (s *Service) SaveInstrument(ctx context.Context, actor Actor, inst Instrument) (Instrument, Result, error) {
	return s.saveInstrument(ctx, "save_instrument", actor, inst, false)
}

// CreateInstrument stores a new instrument and fails with ErrAlreadyExists when
// the number is taken.
func (s *Service) CreateInstrument(ctx context.Context, actor Actor, inst Instrument) (Instrument, Result, error) {
	return s.saveInstrument(ctx, "create_instrument", actor, inst, true)
}

func (s *Service) saveInstrument(ctx context.Context, op string, actor Actor, inst Instrument, strict bool) (Instrument, Result, error) {
	var saved Instrument
	var res Result
	err := s.run(ctx, op, actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, op, instrumentManagers); err != nil {
			return inst.InstrumentNo, err
		}
		inst = normalizeInstrument(inst)
		if err := s.validate.Check(inst); err != nil {
			return inst.InstrumentNo, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			current, exists := tx.View().FindInstrument(inst.InstrumentNo)
			if !exists || strict {
				if inst.Status == "" {
					inst.Status = domain.StatusNormal
				}
				if managedStatus(inst.Status) {
					return statusChangeError("", inst.Status)
				}
				inst.CalibrationLogs = nonNil(inst.CalibrationLogs)
				inst.MaintenanceLogs = nonNil(inst.MaintenanceLogs)
				created, err := tx.CreateInstrument(inst)
				saved = created
				return err
			}
			if inst.Status == "" {
				inst.Status = current.Status
			}
			if inst.Status != current.Status && (managedStatus(inst.Status) || managedStatus(current.Status)) {
				return statusChangeError(current.Status, inst.Status)
			}
			updated, err := tx.UpdateInstrument(inst.InstrumentNo, func(stored *Instrument) error {
				next := inst
				next.LastCalibrationDate = stored.LastCalibrationDate
				next.NextCalibrationDate = stored.NextCalibrationDate
				next.Vendor = stored.Vendor
				next.CalibrationLogs = stored.CalibrationLogs
				next.MaintenanceLogs = stored.MaintenanceLogs
				next.DeletedAt = stored.DeletedAt
				next.DeletedBy = stored.DeletedBy
				*stored = next
				return nil
			})
			saved = updated
			return err
		})
		return inst.InstrumentNo, err
	})
	if err != nil {
		return Instrument{}, res, err
	}
	return saved, res, nil
}

// ArchiveInstrument soft-deletes an instrument after confirmation. History is
// kept intact and a SOFT_DELETE entry is written to the deletion log. Archiving
// an already archived instrument changes nothing.
func (s *Service) ArchiveInstrument(ctx context.Context, actor Actor, no string, c Confirmer) (Instrument, Result, error) {
	var archived Instrument
	var res Result
	var entry DeletionLog
	err := s.run(ctx, "archive_instrument", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "archive_instrument", instrumentManagers); err != nil {
			return no, err
		}
		current, err := s.lookupInstrument(ctx, no)
		if err != nil {
			return no, err
		}
		if current.Archived() {
			archived = current
			return no, nil
		}
		if err := confirm(ctx, c, "確定要將此儀器移至封存區(Archived)嗎？"); err != nil {
			return no, err
		}
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			updated, err := tx.UpdateInstrument(no, func(i *Instrument) error {
				i.Status = domain.StatusArchived
				i.DeletedAt = tx.now
				i.DeletedBy = actorName(actor)
				return nil
			})
			if err != nil {
				return err
			}
			archived = updated
			entry = tx.AppendDeletionLog(DeletionLog{
				InstrumentNo:   no,
				InstrumentName: updated.InstrumentName,
				DeletedAt:      tx.now,
				DeletedBy:      actorName(actor),
				Type:           domain.SoftDelete,
			})
			return nil
		})
		return no, err
	})
	if err != nil {
		return Instrument{}, res, err
	}
	if entry.ID != "" {
		s.writeJournal(ctx, entry, archived)
	}
	return archived, res, nil
}

// RestoreInstrument brings an archived instrument back as NORMAL, whatever its
// status was before archiving.
func (s *Service) RestoreInstrument(ctx context.Context, actor Actor, no string, c Confirmer) (Instrument, Result, error) {
	var restored Instrument
	var res Result
	err := s.run(ctx, "restore_instrument", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "restore_instrument", instrumentManagers); err != nil {
			return no, err
		}
		current, err := s.lookupInstrument(ctx, no)
		if err != nil {
			return no, err
		}
		if !current.Archived() {
			return no, domain.ErrNotArchived
		}
		if err := confirm(ctx, c, "確定要從封存區還原此儀器嗎？"); err != nil {
			return no, err
		}
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			updated, err := tx.UpdateInstrument(no, func(i *Instrument) error {
				i.Status = domain.StatusNormal
				i.DeletedAt = time.Time{}
				i.DeletedBy = ""
				return nil
			})
			restored = updated
			return err
		})
		return no, err
	})
	if err != nil {
		return Instrument{}, res, err
	}
	return restored, res, nil
}

// HardDeleteInstrument permanently removes an archived instrument. The operator
// must retype the instrument number; a cancelled prompt returns ErrDeclined and
// a wrong answer ErrIdentifierMismatch, both leaving state untouched.
func (s *Service) HardDeleteInstrument(ctx context.Context, actor Actor, no string, c Confirmer) (DeletionLog, Result, error) {
	var entry DeletionLog
	var removed Instrument
	var res Result
	err := s.run(ctx, "hard_delete_instrument", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "hard_delete_instrument", instrumentManagers); err != nil {
			return no, err
		}
		current, err := s.lookupInstrument(ctx, no)
		if err != nil {
			return no, err
		}
		if !current.Archived() {
			return no, domain.ErrNotArchived
		}
		if c == nil {
			return no, domain.ErrDeclined
		}
		answer, ok := c.Prompt(ctx, fmt.Sprintf("若要永久刪除，請輸入儀器編號 \"%s\" 以確認：", no))
		if !ok {
			return no, domain.ErrDeclined
		}
		if answer != no {
			return no, domain.ErrIdentifierMismatch
		}
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			deleted, err := tx.DeleteInstrument(no)
			if err != nil {
				return err
			}
			removed = deleted
			entry = tx.AppendDeletionLog(DeletionLog{
				InstrumentNo:   no,
				InstrumentName: deleted.InstrumentName,
				DeletedAt:      tx.now,
				DeletedBy:      actorName(actor),
				Type:           domain.HardDelete,
			})
			return nil
		})
		return no, err
	})
	if err != nil {
		return DeletionLog{}, res, err
	}
	s.writeJournal(ctx, entry, removed)
	return entry, res, nil
}

// AddCalibrationRecord prepends a calibration certificate. Its next date is the
// report date plus the instrument's cycle minus one day, and the instrument's
// last/next calibration dates and vendor follow the new record.
func (s *Service) AddCalibrationRecord(ctx context.Context, actor Actor, no string, in CalibrationInput) (CalibrationRecord, Result, error) {
	var record CalibrationRecord
	var res Result
	err := s.run(ctx, "add_calibration", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "add_calibration", instrumentManagers); err != nil {
			return no, err
		}
		if err := s.validate.Check(in); err != nil {
			return no, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			_, err := tx.UpdateInstrument(no, func(i *Instrument) error {
				if i.CalibrationCycle <= 0 {
					return domain.ValidationError{Fields: []domain.FieldError{{Field: "CalibrationCycle", Rule: "gt"}}}
				}
				date := status.DateOf(in.Date)
				record = CalibrationRecord{
					ID:            newID(),
					Date:          date,
					Vendor:        in.Vendor,
					CertificateNo: in.CertificateNo,
					Result:        in.Result,
					NextDate:      status.NextCalibrationDate(date, i.CalibrationCycle),
				}
				i.CalibrationLogs = prepend(i.CalibrationLogs, record)
				i.LastCalibrationDate = record.Date
				i.NextCalibrationDate = record.NextDate
				i.Vendor = record.Vendor
				return nil
			})
			return err
		})
		return no, err
	})
	if err != nil {
		return CalibrationRecord{}, res, err
	}
	return record, res, nil
}

// AddMaintenanceRecord prepends a maintenance entry. Instrument status is left
// alone.
func (s *Service) AddMaintenanceRecord(ctx context.Context, actor Actor, no string, rec MaintenanceRecord) (MaintenanceRecord, Result, error) {
	var res Result
	err := s.run(ctx, "add_maintenance", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "add_maintenance", instrumentManagers); err != nil {
			return no, err
		}
		rec.Date = status.DateOf(rec.Date)
		if err := s.validate.Check(rec); err != nil {
			return no, err
		}
		if rec.ID == "" {
			rec.ID = newID()
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			_, err := tx.UpdateInstrument(no, func(i *Instrument) error {
				i.MaintenanceLogs = prepend(i.MaintenanceLogs, rec)
				return nil
			})
			return err
		})
		return no, err
	})
	if err != nil {
		return MaintenanceRecord{}, res, err
	}
	return rec, res, nil
}

func actorName(a Actor) string {
	if a.Name != "" {
		return a.Name
	}
	if a.Username != "" {
		return a.Username
	}
	return "Unknown"
}

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
