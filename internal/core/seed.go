package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"labqms/internal/auth"
	"labqms/pkg/domain"
)

func seedDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(fmt.Sprintf("seed date %q: %v", s, err))
	}
	return t
}

func seedTraining(id string, typ domain.TrainingType, course, provider string, hours int64, date, expiry, retraining string) TrainingRecord {
	return TrainingRecord{
		ID:             id,
		Type:           typ,
		CourseName:     course,
		Provider:       provider,
		Hours:          decimal.NewFromInt(hours),
		Date:           seedDate(date),
		ExpiryDate:     seedDate(expiry),
		RetrainingDate: seedDate(retraining),
	}
}

func seedUsers() []User {
	plain := func(username, name string, quals ...string) User {
		return User{Username: username, Name: name, Qualifications: quals, TrainingLogs: []TrainingRecord{}}
	}
	admin := plain("admin", "系統管理員", domain.QualManagementRep, "ISO 17025 內部稽核員")
	admin.TrainingLogs = []TrainingRecord{
		seedTraining("t-1", domain.TrainingExternal, "ISO 17025 管理要求", "TAF", 14, "2023-05-10", "2026-05-10", "2026-02-10"),
		seedTraining("t-2", domain.TrainingInternal, "品質手冊宣導", "實驗室", 40, "2024-01-05", "2025-01-05", "2024-12-05"),
	}
	instMgr := plain("inst_mgr", "王儀管", domain.QualInstrumentMgr, domain.QualTechnicalLead)
	instMgr.TrainingLogs = []TrainingRecord{
		seedTraining("t-3", domain.TrainingExternal, "量測不確定度評估", "ITRI", 12, "2023-08-15", "2025-08-15", "2025-05-15"),
		seedTraining("t-4", domain.TrainingInternal, "儀器校正程序", "技術部", 20, "2024-02-10", "2025-02-10", "2024-12-10"),
	}
	sampMgr := plain("samp_mgr", "李樣本", domain.QualSampleMgr)
	sampMgr.TrainingLogs = []TrainingRecord{
		seedTraining("t-5", domain.TrainingExternal, "危險化學品管理", "工安協會", 6, "2023-01-10", "2024-01-10", "2023-12-10"),
	}
	tech02 := plain("tech_02", "林分析", domain.QualTechnician, domain.QualReportSignatory)
	tech02.TrainingLogs = []TrainingRecord{
		seedTraining("t-6", domain.TrainingInternal, "SOP 操作演練", "內部", 38, "2024-03-01", "2025-03-01", "2025-02-01"),
		seedTraining("t-7", domain.TrainingExternal, "化學分析技術", "SGS", 12, "2023-11-20", "2025-11-20", "2025-09-20"),
	}
	return []User{
		admin,
		instMgr,
		sampMgr,
		plain("tech_01", "陳技術", domain.QualTechnician),
		tech02,
		plain("tech_03", "張品質", domain.QualQualityLead),
		plain("tech_04", "吳查核", domain.QualInternalAuditor),
		plain("tech_05", "趙實驗", domain.QualTechnician),
		plain("tech_06", "孫方法", domain.QualReportSignatory),
		plain("tech_07", "錢標準", domain.QualTechnician),
	}
}

var seedVendors = []Vendor{
	{ID: "v1", Name: "精密儀器校驗有限公司", Contact: "02-23456789"},
	{ID: "v2", Name: "優質計量實驗室", Contact: "03-98765432"},
	{ID: "v3", Name: "標準物資供應中心", Contact: "04-55667788"},
}

func seedInstrument(no, name, brand, next string) Instrument {
	_, suffix, _ := strings.Cut(no, "-")
	return Instrument{
		InstrumentNo:        no,
		InstrumentName:      name,
		Brand:               brand,
		Model:               "M-" + suffix,
		PurchaseDate:        seedDate("2023-01-01"),
		PurchaseAmount:      500000,
		Status:              domain.StatusNormal,
		CalibrationCycle:    12,
		LastCalibrationDate: seedDate("2023-01-01"),
		NextCalibrationDate: seedDate(next),
		Vendor:              seedVendors[0].Name,
		Custodian:           "王儀管",
		CalibrationLogs:     []CalibrationRecord{},
		MaintenanceLogs:     []MaintenanceRecord{},
	}
}

func seedInstruments() []Instrument {
	return []Instrument{
		seedInstrument("INST-001", "高效能液相層析儀", "Agilent", "2023-10-01"),
		seedInstrument("INST-002", "電子分析天平", "Mettler", "2024-01-15"),
		seedInstrument("INST-003", "氣相層析儀", "Shimadzu", "2024-05-25"),
		seedInstrument("INST-004", "紫外可見光光譜儀", "Thermo", "2024-06-02"),
		seedInstrument("INST-005", "離心機", "Beckman", "2024-06-10"),
		seedInstrument("INST-006", "酸鹼度計", "WTW", "2025-01-01"),
		seedInstrument("INST-007", "超純水系統", "Millipore", "2025-02-15"),
		seedInstrument("INST-008", "真空乾燥箱", "Memmert", "2025-03-20"),
		seedInstrument("INST-009", "精密烘箱", "Binder", "2025-04-10"),
		seedInstrument("INST-010", "震盪培養箱", "New Brunswick", "2025-05-01"),
		seedInstrument("INST-011", "自動滴定儀", "Metrohm", "2025-06-12"),
		seedInstrument("INST-012", "原子吸收光譜儀", "PerkinElmer", "2025-07-05"),
		seedInstrument("INST-013", "螢光光譜儀", "Horiba", "2025-08-18"),
		seedInstrument("INST-014", "微波消化爐", "Anton Paar", "2025-09-22"),
		seedInstrument("INST-015", "低溫冰箱", "Panasonic", "2025-10-30"),
		seedInstrument("INST-016", "高壓滅菌釜", "Hirayama", "2025-11-14"),
		seedInstrument("INST-017", "數位黏度計", "Brookfield", "2025-12-01"),
		seedInstrument("INST-018", "電導度計", "Horiba", "2024-12-25"),
		seedInstrument("INST-019", "折射儀", "Atago", "2024-11-10"),
		seedInstrument("INST-020", "密度計", "Anton Paar", "2024-10-05"),
	}
}

func seedMaterial(lot, name, purchase, expiry string, stock int, st domain.MaterialStatus) Material {
	return Material{Lot: lot, Name: name, PurchaseDate: seedDate(purchase), ExpiryDate: seedDate(expiry), Stock: stock, Status: st}
}

func seedMaterials() []Material {
	ok, expired := domain.MaterialNormal, domain.MaterialExpired
	return []Material{
		seedMaterial("LOT-P4", "pH 4.00 標準液", "2024-01-01", "2025-01-01", 10, ok),
		seedMaterial("LOT-P7", "pH 7.00 標準液", "2024-01-01", "2025-01-01", 12, ok),
		seedMaterial("LOT-P10", "pH 10.01 標準液", "2024-01-01", "2025-01-01", 8, ok),
		seedMaterial("LOT-CD", "電導度 1413 uS/cm 標準液", "2023-05-01", "2024-05-01", 5, expired),
		seedMaterial("LOT-ACN", "乙腈 HPLC Grade", "2024-02-01", "2026-02-01", 24, ok),
		seedMaterial("LOT-MEOH", "甲醇 HPLC Grade", "2024-02-01", "2026-02-01", 18, ok),
		seedMaterial("LOT-H2O", "去離子水", "2024-04-01", "2024-10-01", 100, ok),
		seedMaterial("LOT-CU", "銅單元素標準液 1000ppm", "2023-01-01", "2024-01-01", 2, expired),
		seedMaterial("LOT-FE", "鐵單元素標準液 1000ppm", "2024-03-01", "2025-03-01", 4, ok),
		seedMaterial("LOT-PB", "鉛單元素標準液 1000ppm", "2024-03-01", "2025-03-01", 3, ok),
		seedMaterial("LOT-IPA", "異丙醇 AR Grade", "2024-01-10", "2026-01-10", 6, ok),
		seedMaterial("LOT-HEX", "正己烷 AR Grade", "2024-01-10", "2026-01-10", 8, ok),
		seedMaterial("LOT-HCL", "鹽酸 37% CP Grade", "2024-02-15", "2026-02-15", 12, ok),
		seedMaterial("LOT-HNO3", "硝酸 65% GR Grade", "2024-02-15", "2026-02-15", 10, ok),
		seedMaterial("LOT-H2SO4", "硫酸 98% AR Grade", "2024-02-15", "2026-02-15", 15, ok),
		seedMaterial("LOT-NAOH", "氫氧化鈉 粒狀", "2024-03-20", "2027-03-20", 50, ok),
		seedMaterial("LOT-KCL", "氯化鉀 晶體", "2024-03-20", "2027-03-20", 20, ok),
		seedMaterial("LOT-OX", "草酸 標準物質", "2022-01-01", "2023-01-01", 1, expired),
		seedMaterial("LOT-SI", "矽膠乾燥劑 藍色", "2024-01-01", "2025-01-01", 100, ok),
		seedMaterial("LOT-GLU", "葡萄糖 標準品", "2024-01-01", "2026-01-01", 5, ok),
	}
}

var seedMaterialNames = []string{
	"pH 4.00 標準緩衝溶液",
	"pH 7.00 標準緩衝溶液",
	"乙腈 (HPLC Grade)",
	"去離子水",
	"甲醇 (HPLC Grade)",
	"硝酸 (GR Grade)",
	"鹽酸 (CP Grade)",
	"電導度標準液",
}

// Seed loads the demonstration dataset into an empty store: ten people with the
// default password, twenty instruments, twenty material lots, three vendors,
// and the material name catalog. It does nothing when instruments or users
// already exist. The evaluation pass runs afterwards.
func (s *Service) Seed(ctx context.Context) error {
	hash, err := s.hasher.Hash(auth.DefaultPassword)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	seeded := false
	_, err = s.store.RunInTransaction(ctx, func(tx *Transaction) error {
		view := tx.View()
		if len(view.ListInstruments()) > 0 || len(view.ListUsers()) > 0 {
			return nil
		}
		for _, u := range seedUsers() {
			u.PasswordHash = hash
			tx.PutUser(u)
		}
		for _, inst := range seedInstruments() {
			if _, err := tx.CreateInstrument(inst); err != nil {
				return err
			}
		}
		for _, m := range seedMaterials() {
			tx.PutMaterial(m)
		}
		for _, v := range seedVendors {
			tx.PutVendor(v)
		}
		for _, name := range seedMaterialNames {
			tx.AddMaterialName(name)
		}
		seeded = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if !seeded {
		s.logger.Info("seed skipped", "reason", "store not empty")
		return nil
	}
	s.logger.Info("seed loaded", "users", 10, "instruments", 20, "materials", 20)
	_, err = s.Reconcile(ctx)
	return err
}
