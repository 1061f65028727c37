package status

import (
	"sort"
	"time"

	"labqms/pkg/domain"
)

// PlanEntry places one instrument on the yearly calibration calendar. A month
// value of zero means the event falls outside the plan year.
type PlanEntry struct {
	InstrumentNo   string    `json:"instrumentNo"`
	InstrumentName string    `json:"instrumentName"`
	Vendor         string    `json:"vendor"`
	NextDate       time.Time `json:"nextCalibrationDate"`
	SendMonth      int       `json:"sendMonth"`
	ExpiryMonth    int       `json:"expiryMonth"`
	Expired        bool      `json:"expired"`
}

// CalibrationPlan lists instruments whose send or expiry month lands in year.
// The send month is one month before expiry. Archived instruments and those
// never calibrated are skipped.
func CalibrationPlan(instruments []domain.Instrument, year int, now time.Time) []PlanEntry {
	var out []PlanEntry
	for _, inst := range instruments {
		if inst.Archived() || inst.NextCalibrationDate.IsZero() {
			continue
		}
		next := DateOf(inst.NextCalibrationDate)
		send := next.AddDate(0, -1, 0)
		entry := PlanEntry{
			InstrumentNo:   inst.InstrumentNo,
			InstrumentName: inst.InstrumentName,
			Vendor:         inst.Vendor,
			NextDate:       next,
			Expired:        CalibrationOverdue(next, now),
		}
		if next.Year() == year {
			entry.ExpiryMonth = int(next.Month())
		}
		if send.Year() == year {
			entry.SendMonth = int(send.Month())
		}
		if entry.SendMonth == 0 && entry.ExpiryMonth == 0 {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDate.Equal(out[j].NextDate) {
			return out[i].NextDate.Before(out[j].NextDate)
		}
		return out[i].InstrumentNo < out[j].InstrumentNo
	})
	return out
}
