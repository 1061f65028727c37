// Package integration drives the service end to end against every
// in-process journal and archive driver.
package integration

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"labqms/internal/audit"
	"labqms/internal/auth"
	"labqms/internal/blob"
	"labqms/internal/core"
	"labqms/internal/export"
	"labqms/internal/observability"
	"labqms/pkg/domain"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var (
	now     = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	instMgr = domain.Actor{Username: "inst_mgr", Name: "王儀管", Qualifications: []string{domain.QualInstrumentMgr, domain.QualTechnicalLead}}
)

func TestIntegrationSmoke(t *testing.T) {
	journals := []struct {
		name string
		cfg  func(t *testing.T) audit.Config
	}{
		{"memory-journal", func(*testing.T) audit.Config { return audit.Config{Driver: audit.DriverMemory} }},
		{"sqlite-journal", func(t *testing.T) audit.Config {
			return audit.Config{Driver: audit.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "audit.db")}
		}},
	}
	archives := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{"memory-archive", func(*testing.T) blob.Store { return blob.NewMemory() }},
		{"filesystem-archive", func(t *testing.T) blob.Store {
			st, err := blob.Open(context.Background(), blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()})
			if err != nil {
				t.Fatalf("open fs archive: %v", err)
			}
			return st
		}},
		{"mock-s3-archive", func(*testing.T) blob.Store { return blob.NewMockS3ForTests() }},
	}

	for _, jv := range journals {
		for _, av := range archives {
			t.Run(jv.name+"/"+av.name, func(t *testing.T) {
				runSmoke(t, jv.cfg(t), av.open(t))
			})
		}
	}
}

func runSmoke(t *testing.T, journalCfg audit.Config, store blob.Store) {
	ctx := context.Background()
	journal, err := audit.Open(ctx, journalCfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer func() { _ = journal.Close() }()

	obsCore, logs := observer.New(zap.DebugLevel)
	logger := zap.New(obsCore)
	metrics := observability.NewPrometheusRecorder()
	svc := newService(t, journal, metrics, logger)

	loan, res, err := svc.IssueLoan(ctx, instMgr, "INST-006", core.LoanInput{
		CustomerName:       "台大化學系",
		Borrower:           "周同學",
		LoanType:           domain.LoanToUnit,
		LoanDate:           now,
		ExpectedReturnDate: now.AddDate(0, 0, 10),
		Purpose:            "教學",
	})
	if err != nil || res.HasBlocking() {
		t.Fatalf("issue loan: %v %+v", err, res)
	}
	if _, _, err := svc.ConfirmLoanReturn(ctx, instMgr, loan.ID, domain.Confirmed()); err != nil {
		t.Fatalf("return loan: %v", err)
	}
	if _, _, err := svc.ArchiveInstrument(ctx, instMgr, "INST-010", domain.Confirmed()); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, _, err := svc.HardDeleteInstrument(ctx, instMgr, "INST-010", domain.Answer("INST-010")); err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	entries, err := journal.List(ctx)
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if len(entries) != 2 || entries[0].Log.Type != domain.SoftDelete || entries[1].Log.Type != domain.HardDelete {
		t.Fatalf("journal should hold archive then delete, got %+v", entries)
	}
	if entries[1].Snapshot.IsEmpty() {
		t.Fatalf("hard delete entry should carry the instrument snapshot")
	}

	format, err := export.New(export.WithOrganization("品質實驗室"), export.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("formatter: %v", err)
	}
	archiver := export.NewArchiver(store, format)
	loans, err := svc.LoanRecords(ctx)
	if err != nil {
		t.Fatalf("loans: %v", err)
	}
	slip, err := archiver.LoanSlip(ctx, loans[0])
	if err != nil {
		t.Fatalf("loan slip: %v", err)
	}
	again, err := archiver.LoanSlip(ctx, loans[0])
	if err != nil || again.Info.Key != slip.Info.Key {
		t.Fatalf("reprint should reuse %s: %+v %v", slip.Info.Key, again.Info, err)
	}
	plan, err := svc.CalibrationPlan(ctx, 2024)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := archiver.CalibrationPlanXLSX(ctx, 2024, plan); err != nil {
		t.Fatalf("calibration plan: %v", err)
	}

	_, rc, err := store.Get(ctx, slip.Info.Key)
	if err != nil {
		t.Fatalf("get slip: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !strings.Contains(string(body), loans[0].InstrumentNo) {
		t.Fatalf("stored slip should name the instrument: %v", err)
	}
	listed, err := archiver.List(ctx, export.CalibrationPlanPrefix)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one archived calibration plan, got %d %v", len(listed), err)
	}

	if n := len(logs.FilterMessage("audit").All()); n < 4 {
		t.Fatalf("expected audit lines for each mutation, got %d", n)
	}
	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawOps bool
	for _, f := range families {
		if f.GetName() == "labqms_operations_total" {
			sawOps = true
		}
	}
	if !sawOps {
		t.Fatalf("operations counter not registered after mutations")
	}
}

func newService(t *testing.T, journal domain.DeletionJournal, metrics *observability.PrometheusRecorder, logger *zap.Logger) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithClock(fixedClock(now)),
		core.WithLogger(observability.NewZapLogger(logger.Named("core"))),
		core.WithAuditRecorder(observability.NewZapAuditRecorder(logger)),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(observability.NewZapTracer(logger)),
		core.WithDeletionJournal(journal),
		core.WithPasswordHasher(auth.BcryptHasher{Cost: 4}),
	)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}
