package core

import (
	"context"
	"fmt"

	"labqms/pkg/domain"
)

// NewCalibrationScheduleRule keeps an instrument's next calibration date tied to
// its newest calibration record. Instruments without records keep whatever date
// they were registered with.
func NewCalibrationScheduleRule() domain.Rule {
	return calibrationScheduleRule{}
}

type calibrationScheduleRule struct{}

func (calibrationScheduleRule) Name() string { return "calibration_schedule" }

func (calibrationScheduleRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	seen := make(map[string]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityInstrument || change.Action == domain.ActionDelete {
			continue
		}
		if _, dup := seen[change.Key]; dup {
			continue
		}
		seen[change.Key] = struct{}{}

		inst, ok := view.FindInstrument(change.Key)
		if !ok || len(inst.CalibrationLogs) == 0 {
			continue
		}
		latest := inst.CalibrationLogs[0]
		if inst.NextCalibrationDate.Equal(latest.NextDate) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "calibration_schedule",
			Severity: domain.SeverityBlock,
			Message: fmt.Sprintf("instrument %s next calibration %s does not match certificate %s (%s)",
				inst.InstrumentNo, inst.NextCalibrationDate.Format("2006-01-02"), latest.CertificateNo, latest.NextDate.Format("2006-01-02")),
			Entity:   domain.EntityInstrument,
			EntityID: inst.InstrumentNo,
		})
	}
	return res, nil
}

// NewStatusVocabularyRule rejects instrument and material statuses outside the
// known vocabulary.
func NewStatusVocabularyRule() domain.Rule {
	return statusVocabularyRule{}
}

type statusVocabularyRule struct{}

func (statusVocabularyRule) Name() string { return "status_vocabulary" }

func (statusVocabularyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		switch change.Entity {
		case domain.EntityInstrument:
			inst, ok := view.FindInstrument(change.Key)
			if ok && !inst.Status.Valid() {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "status_vocabulary",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("instrument %s has unknown status %q", inst.InstrumentNo, inst.Status),
					Entity:   domain.EntityInstrument,
					EntityID: inst.InstrumentNo,
				})
			}
		case domain.EntityMaterial:
			m, ok := view.FindMaterial(change.Key)
			if ok && m.Status != domain.MaterialNormal && m.Status != domain.MaterialExpired {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "status_vocabulary",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("material %s has unknown status %q", m.Lot, m.Status),
					Entity:   domain.EntityMaterial,
					EntityID: m.Lot,
				})
			}
		}
	}
	return res, nil
}
