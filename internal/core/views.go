package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// InstrumentFilter narrows the instrument list. Zero values match everything
// except that archived instruments only appear when Archived is set.
type InstrumentFilter struct {
	Search   string
	Status   InstrumentStatus
	Archived bool
	LoanType domain.LoanType
}

func (f InstrumentFilter) match(inst Instrument, active *LoanRecord) bool {
	if inst.Archived() != f.Archived {
		return false
	}
	if f.Search != "" {
		name := strings.ToLower(inst.InstrumentName)
		if !strings.Contains(name, strings.ToLower(f.Search)) && !strings.Contains(inst.InstrumentNo, f.Search) {
			return false
		}
	}
	if f.Status != "" && inst.Status != f.Status {
		return false
	}
	if f.LoanType != "" && (active == nil || active.LoanType != f.LoanType) {
		return false
	}
	return true
}

// InstrumentView is an instrument with its derived display state and loan log.
type InstrumentView struct {
	Instrument
	Display    status.Display `json:"display"`
	ActiveLoan *LoanRecord    `json:"activeLoan,omitempty"`
	LoanLogs   []LoanRecord   `json:"loanLogs"`
}

func instrumentView(v TransactionView, inst Instrument, now time.Time) InstrumentView {
	out := InstrumentView{Instrument: inst, LoanLogs: nonNil(v.LoansFor(inst.InstrumentNo))}
	if loan, ok := v.ActiveLoan(inst.InstrumentNo); ok {
		out.ActiveLoan = &loan
	}
	out.Display = status.InstrumentDisplay(inst, out.ActiveLoan, now)
	return out
}

// read reconciles stored statuses and then runs fn on a snapshot.
func (s *Service) read(ctx context.Context, fn func(v TransactionView) error) error {
	if _, err := s.Reconcile(ctx); err != nil {
		return err
	}
	return s.store.View(ctx, fn)
}

// Instruments lists instruments matching filter, ordered by number.
func (s *Service) Instruments(ctx context.Context, filter InstrumentFilter) ([]InstrumentView, error) {
	now := s.now()
	var out []InstrumentView
	err := s.read(ctx, func(v TransactionView) error {
		for _, inst := range v.ListInstruments() {
			view := instrumentView(v, inst, now)
			if filter.match(inst, view.ActiveLoan) {
				out = append(out, view)
			}
		}
		return nil
	})
	return out, err
}

// Instrument returns one instrument view.
func (s *Service) Instrument(ctx context.Context, no string) (InstrumentView, error) {
	var out InstrumentView
	err := s.read(ctx, func(v TransactionView) error {
		inst, ok := v.FindInstrument(no)
		if !ok {
			return NotFoundError{Entity: EntityInstrument, Key: no}
		}
		out = instrumentView(v, inst, s.now())
		return nil
	})
	return out, err
}

// Materials lists material lots ordered by lot.
func (s *Service) Materials(ctx context.Context) ([]Material, error) {
	var out []Material
	err := s.read(ctx, func(v TransactionView) error {
		out = v.ListMaterials()
		return nil
	})
	return out, err
}

// Users lists people ordered by username.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	var out []User
	err := s.read(ctx, func(v TransactionView) error {
		out = v.ListUsers()
		return nil
	})
	return out, err
}

// TrainingStatus is one row of the training overview.
type TrainingStatus struct {
	Username       string            `json:"username"`
	Name           string            `json:"name"`
	Qualifications []string          `json:"qualifications"`
	Label          string            `json:"label"`
	Compliance     status.Compliance `json:"compliance"`
}

// TrainingOverview reports each person's training label and the current
// year's hour compliance.
func (s *Service) TrainingOverview(ctx context.Context) ([]TrainingStatus, error) {
	now := s.now()
	var out []TrainingStatus
	err := s.read(ctx, func(v TransactionView) error {
		for _, u := range v.ListUsers() {
			out = append(out, TrainingStatus{
				Username:       u.Username,
				Name:           u.Name,
				Qualifications: u.Qualifications,
				Label:          status.TrainingLabel(u.TrainingLogs, now),
				Compliance:     status.TrainingCompliance(u.TrainingLogs, now.Year(), s.requirements),
			})
		}
		return nil
	})
	return out, err
}

// LoanRecords returns the global loan list, newest first.
func (s *Service) LoanRecords(ctx context.Context) ([]LoanRecord, error) {
	var out []LoanRecord
	err := s.read(ctx, func(v TransactionView) error {
		out = nonNil(v.ListLoans())
		return nil
	})
	return out, err
}

// StatusCount is one slice of the instrument status distribution.
type StatusCount struct {
	Status InstrumentStatus `json:"status"`
	Count  int              `json:"count"`
}

// MonthlyCost totals maintenance cost for a calendar month (YYYY-MM).
type MonthlyCost struct {
	Month string `json:"month"`
	Cost  int64  `json:"cost"`
}

// Dashboard summarises the stored state for the landing page.
type Dashboard struct {
	InHouse            int           `json:"inHouse"`
	Loaned             int           `json:"loaned"`
	PendingOrRepairing int           `json:"pendingOrRepairing"`
	ExpiredMaterials   int           `json:"expiredMaterials"`
	StatusDistribution []StatusCount `json:"statusDistribution"`
	MaintenanceCost    []MonthlyCost `json:"maintenanceCost"`
}

var dashboardStatuses = []InstrumentStatus{
	domain.StatusNormal,
	domain.StatusLoaned,
	domain.StatusPendingCalibration,
	domain.StatusRepairing,
	domain.StatusCalibrating,
	domain.StatusScrapped,
}

// Dashboard counts instruments by stored status and totals maintenance cost per month.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := s.read(ctx, func(v TransactionView) error {
		counts := make(map[InstrumentStatus]int)
		costs := make(map[string]int64)
		for _, inst := range v.ListInstruments() {
			counts[inst.Status]++
			for _, m := range inst.MaintenanceLogs {
				if m.Date.IsZero() {
					continue
				}
				costs[m.Date.Format("2006-01")] += m.Cost
			}
		}
		out.InHouse = counts[domain.StatusNormal]
		out.Loaned = counts[domain.StatusLoaned]
		out.PendingOrRepairing = counts[domain.StatusPendingCalibration] + counts[domain.StatusRepairing]
		for _, m := range v.ListMaterials() {
			if m.Status == domain.MaterialExpired {
				out.ExpiredMaterials++
			}
		}
		out.StatusDistribution = make([]StatusCount, 0, len(dashboardStatuses))
		for _, st := range dashboardStatuses {
			out.StatusDistribution = append(out.StatusDistribution, StatusCount{Status: st, Count: counts[st]})
		}
		out.MaintenanceCost = make([]MonthlyCost, 0, len(costs))
		for month, cost := range costs {
			out.MaintenanceCost = append(out.MaintenanceCost, MonthlyCost{Month: month, Cost: cost})
		}
		sort.Slice(out.MaintenanceCost, func(i, j int) bool {
			return out.MaintenanceCost[i].Month < out.MaintenanceCost[j].Month
		})
		return nil
	})
	return out, err
}

// CalibrationPlan returns the calibration calendar for year.
func (s *Service) CalibrationPlan(ctx context.Context, year int) ([]status.PlanEntry, error) {
	var out []status.PlanEntry
	err := s.read(ctx, func(v TransactionView) error {
		out = status.CalibrationPlan(v.ListInstruments(), year, s.now())
		return nil
	})
	return out, err
}

// DeletionLogs returns archive and removal entries in the order they were written.
func (s *Service) DeletionLogs(ctx context.Context) ([]DeletionLog, error) {
	var out []DeletionLog
	err := s.store.View(ctx, func(v TransactionView) error {
		out = nonNil(v.ListDeletionLogs())
		return nil
	})
	return out, err
}

// Transitions returns every status rewrite made by the evaluation pass.
func (s *Service) Transitions(ctx context.Context) ([]StatusTransition, error) {
	var out []StatusTransition
	err := s.store.View(ctx, func(v TransactionView) error {
		out = nonNil(v.ListTransitions())
		return nil
	})
	return out, err
}

func (s *Service) Vendors(ctx context.Context) ([]Vendor, error) {
	var out []Vendor
	err := s.store.View(ctx, func(v TransactionView) error {
		out = nonNil(v.ListVendors())
		return nil
	})
	return out, err
}

func (s *Service) MaterialNames(ctx context.Context) ([]string, error) {
	var out []string
	err := s.store.View(ctx, func(v TransactionView) error {
		out = nonNil(v.ListMaterialNames())
		return nil
	})
	return out, err
}
