package core

import (
	"context"
	"fmt"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// reconcile persists time-derived statuses into tx. Instruments move from
// NORMAL to PENDING_CALIBRATION inside the look-ahead window and materials past
// expiry become expired. Neither rewrite is ever reverted here, so a second
// pass is a no-op. Each rewrite is recorded as a StatusTransition.
func reconcile(tx *Transaction) []StatusTransition {
	now := tx.now
	view := tx.View()
	var out []StatusTransition

	for _, inst := range view.ListInstruments() {
		if !status.CalibrationDue(inst.Status, inst.NextCalibrationDate, now) {
			continue
		}
		days := status.CalibrationDiffDays(inst.NextCalibrationDate, now)
		from := inst.Status
		if _, err := tx.UpdateInstrument(inst.InstrumentNo, func(i *Instrument) error {
			i.Status = domain.StatusPendingCalibration
			return nil
		}); err != nil {
			continue
		}
		out = append(out, StatusTransition{
			Entity: EntityInstrument,
			Key:    inst.InstrumentNo,
			From:   string(from),
			To:     string(domain.StatusPendingCalibration),
			At:     now,
			Reason: fmt.Sprintf("calibration due in %d days on %s", days, inst.NextCalibrationDate.Format("2006-01-02")),
		})
	}

	for _, m := range view.ListMaterials() {
		if m.Status == domain.MaterialExpired || !status.MaterialExpired(m.ExpiryDate, now) {
			continue
		}
		from := m.Status
		m.Status = domain.MaterialExpired
		tx.PutMaterial(m)
		out = append(out, StatusTransition{
			Entity: EntityMaterial,
			Key:    m.Lot,
			From:   string(from),
			To:     string(domain.MaterialExpired),
			At:     now,
			Reason: "expired on " + m.ExpiryDate.Format("2006-01-02"),
		})
	}

	for _, tr := range out {
		tx.appendTransition(tr)
	}
	return out
}

// Reconcile runs the evaluation pass on its own and returns the transitions it
// recorded. Running it again without a clock change returns nothing.
func (s *Service) Reconcile(ctx context.Context) ([]StatusTransition, error) {
	var transitions []StatusTransition
	_, err := s.store.RunInTransaction(ctx, func(tx *Transaction) error {
		transitions = reconcile(tx)
		return nil
	})
	if err != nil {
		s.logger.Error("evaluation pass failed", "error", err)
		return nil, err
	}
	for _, tr := range transitions {
		s.logger.Info("status transition", "entity", tr.Entity, "key", tr.Key, "from", tr.From, "to", tr.To, "reason", tr.Reason)
	}
	if len(transitions) > 0 {
		s.recordAudit(ctx, "reconcile", Actor{}, "", 0, nil)
	}
	return transitions, nil
}
