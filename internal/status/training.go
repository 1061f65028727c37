package status

import (
	"time"

	"github.com/shopspring/decimal"

	"labqms/pkg/domain"
)

// Training status labels.
const (
	LabelUnscheduled = "尚未安排教育訓練"
	LabelExpired     = "過期"
	LabelCompliant   = "合規"
)

var hundred = decimal.NewFromInt(100)

// Requirements are the yearly training-hour targets.
type Requirements struct {
	Internal decimal.Decimal `json:"internal"`
	External decimal.Decimal `json:"external"`
}

// DefaultRequirements returns 36 internal and 12 external hours per year.
func DefaultRequirements() Requirements {
	return Requirements{
		Internal: decimal.NewFromInt(36),
		External: decimal.NewFromInt(12),
	}
}

// Compliance summarises one user's hours for a calendar year.
type Compliance struct {
	Year             int             `json:"year"`
	Internal         decimal.Decimal `json:"internalHours"`
	External         decimal.Decimal `json:"externalHours"`
	InternalGap      decimal.Decimal `json:"internalGap"`
	ExternalGap      decimal.Decimal `json:"externalGap"`
	InternalProgress decimal.Decimal `json:"internalProgress"`
	ExternalProgress decimal.Decimal `json:"externalProgress"`
}

// TrainingCompliance sums hours of records dated in year, split by type.
func TrainingCompliance(records []domain.TrainingRecord, year int, req Requirements) Compliance {
	c := Compliance{Year: year, Internal: decimal.Zero, External: decimal.Zero}
	for _, r := range records {
		if r.Date.IsZero() || r.Date.Year() != year {
			continue
		}
		switch r.Type {
		case domain.TrainingInternal:
			c.Internal = c.Internal.Add(r.Hours)
		case domain.TrainingExternal:
			c.External = c.External.Add(r.Hours)
		}
	}
	c.InternalGap = gap(req.Internal, c.Internal)
	c.ExternalGap = gap(req.External, c.External)
	c.InternalProgress = progress(req.Internal, c.Internal)
	c.ExternalProgress = progress(req.External, c.External)
	return c
}

func gap(required, achieved decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, required.Sub(achieved))
}

func progress(required, achieved decimal.Decimal) decimal.Decimal {
	if required.Sign() <= 0 {
		return hundred
	}
	return decimal.Min(hundred, achieved.Div(required).Mul(hundred))
}

// TrainingLabel classifies a user's records. Any record whose expiry or
// retraining date has passed marks the whole user as expired, regardless of
// newer records.
func TrainingLabel(records []domain.TrainingRecord, now time.Time) string {
	if len(records) == 0 {
		return LabelUnscheduled
	}
	today := DateOf(now)
	for _, r := range records {
		if before(r.ExpiryDate, today) || before(r.RetrainingDate, today) {
			return LabelExpired
		}
	}
	return LabelCompliant
}

func before(date, today time.Time) bool {
	return !date.IsZero() && DateOf(date).Before(today)
}
