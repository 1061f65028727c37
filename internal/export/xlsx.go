package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// Sheet names used in generated workbooks.
const (
	TrainingSheet    = "教育訓練計畫"
	CalibrationSheet = "校正計畫"
)

var trainingHeaders = []string{"姓名", "認可資格", "訓練類型", "課程名稱", "主辦單位", "預定日期", "時數", "備註"}

type workbook struct {
	f      *excelize.File
	sheet  string
	header int
	cell   int
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	cell, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    borders(),
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, sheet: sheet, header: header, cell: cell}, nil
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func (b *workbook) title(text string, lastCol int) error {
	end, err := excelize.CoordinatesToCellName(lastCol, 1)
	if err != nil {
		return err
	}
	if err := b.f.SetCellValue(b.sheet, "A1", text); err != nil {
		return err
	}
	if err := b.f.MergeCell(b.sheet, "A1", end); err != nil {
		return err
	}
	style, err := b.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	return b.f.SetCellStyle(b.sheet, "A1", end, style)
}

// row writes values starting at column A of the given row.
func (b *workbook) row(row int, style int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := b.f.SetCellValue(b.sheet, cell, v); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	return b.f.SetCellStyle(b.sheet, first, last, style)
}

func (b *workbook) close() { _ = b.f.Close() }

func (b *workbook) finish(w io.Writer) error {
	if _, err := b.f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// TrainingPlanXLSX writes the annual training plan as a workbook with one row
// per training record. Name and qualification cells are merged per user.
func (f *Formatter) TrainingPlanXLSX(w io.Writer, year int, users []domain.User) error {
	wb, err := newWorkbook(TrainingSheet)
	if err != nil {
		return fmt.Errorf("new workbook: %w", err)
	}
	defer wb.close()
	lastCol := len(trainingHeaders)
	title := fmt.Sprintf("%s - %d 年度教育訓練計畫表 (計畫日期: %s)", f.org, year, formatDate(f.now()))
	if err := wb.title(title, lastCol); err != nil {
		return err
	}
	headers := make([]any, lastCol)
	for i, h := range trainingHeaders {
		headers[i] = h
	}
	if err := wb.row(2, wb.header, headers...); err != nil {
		return err
	}
	r := 3
	var merges [][2]string
	for _, pr := range planRows(users) {
		if pr.Empty {
			if err := wb.row(r, wb.cell, pr.Name, pr.Qualifications, "尚無計畫", "", "", "", "", ""); err != nil {
				return err
			}
			r++
			continue
		}
		hours, _ := pr.Record.Hours.Float64()
		if err := wb.row(r, wb.cell, pr.Name, pr.Qualifications, string(pr.Record.Type), pr.Record.CourseName,
			pr.Record.Provider, formatDate(pr.Record.Date), hours, ""); err != nil {
			return err
		}
		if pr.First && pr.Span > 1 {
			for _, col := range []string{"A", "B"} {
				merges = append(merges, [2]string{fmt.Sprintf("%s%d", col, r), fmt.Sprintf("%s%d", col, r+pr.Span-1)})
			}
		}
		r++
	}
	for _, m := range merges {
		if err := wb.f.MergeCell(wb.sheet, m[0], m[1]); err != nil {
			return err
		}
	}
	_ = wb.f.SetColWidth(wb.sheet, "A", "A", 12)
	_ = wb.f.SetColWidth(wb.sheet, "B", "B", 30)
	_ = wb.f.SetColWidth(wb.sheet, "D", "E", 28)
	_ = wb.f.SetColWidth(wb.sheet, "F", "F", 14)
	return wb.finish(w)
}

// CalibrationPlanXLSX writes the yearly calibration calendar: one row per
// instrument, one column per month. Send months are marked 送校 and expiry
// months 到期.
func (f *Formatter) CalibrationPlanXLSX(w io.Writer, year int, plan []status.PlanEntry) error {
	wb, err := newWorkbook(CalibrationSheet)
	if err != nil {
		return fmt.Errorf("new workbook: %w", err)
	}
	defer wb.close()
	const fixedCols = 4
	lastCol := fixedCols + 12
	if err := wb.title(fmt.Sprintf("%s - %d 年度儀器校正計畫", f.org, year), lastCol); err != nil {
		return err
	}
	headers := []any{"儀器編號", "儀器名稱", "校正廠商", "有效期限"}
	for m := 1; m <= 12; m++ {
		headers = append(headers, fmt.Sprintf("%d月", m))
	}
	if err := wb.row(2, wb.header, headers...); err != nil {
		return err
	}
	for i, e := range plan {
		values := []any{e.InstrumentNo, e.InstrumentName, e.Vendor, formatDate(e.NextDate)}
		for m := 1; m <= 12; m++ {
			values = append(values, monthMark(e, m))
		}
		if err := wb.row(i+3, wb.cell, values...); err != nil {
			return err
		}
	}
	_ = wb.f.SetColWidth(wb.sheet, "A", "A", 12)
	_ = wb.f.SetColWidth(wb.sheet, "B", "C", 22)
	_ = wb.f.SetColWidth(wb.sheet, "D", "D", 12)
	return wb.finish(w)
}

func monthMark(e status.PlanEntry, month int) string {
	switch {
	case e.SendMonth == month && e.ExpiryMonth == month:
		return "送校/到期"
	case e.SendMonth == month:
		return "送校"
	case e.ExpiryMonth == month:
		return "到期"
	}
	return ""
}
