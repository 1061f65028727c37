// Package export renders printable documents: the instrument loan slip, the
// annual training plan and the calibration plan sheet.
package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"labqms/internal/status"
	"labqms/pkg/domain"
)

// DefaultOrganization heads every printed document unless overridden.
const DefaultOrganization = "祐大技術顧問股份有限公司"

const dateLayout = "2006-01-02"

//go:embed templates/*.html
var templateFS embed.FS

// Formatter renders documents. It is safe for concurrent use.
type Formatter struct {
	org  string
	now  func() time.Time
	tmpl *template.Template
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithOrganization sets the heading printed on documents.
func WithOrganization(name string) Option {
	return func(f *Formatter) {
		if strings.TrimSpace(name) != "" {
			f.org = name
		}
	}
}

// WithClock sets the source of the printed date.
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) {
		if now != nil {
			f.now = now
		}
	}
}

// New parses the embedded templates.
func New(opts ...Option) (*Formatter, error) {
	f := &Formatter{org: DefaultOrganization, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	tmpl, err := template.New("export").Funcs(template.FuncMap{"date": formatDate}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse export templates: %w", err)
	}
	f.tmpl = tmpl
	return f, nil
}

// Organization returns the configured heading.
func (f *Formatter) Organization() string { return f.org }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// LoanSlipHTML writes the printable slip for one loan.
func (f *Formatter) LoanSlipHTML(w io.Writer, loan domain.LoanRecord) error {
	data := struct {
		Organization string
		PrintedAt    time.Time
		Loan         domain.LoanRecord
	}{f.org, status.DateOf(f.now()), loan}
	if err := f.tmpl.ExecuteTemplate(w, "loan_slip.html", data); err != nil {
		return fmt.Errorf("render loan slip %s: %w", loan.ID, err)
	}
	return nil
}

type planRow struct {
	First          bool
	Empty          bool
	Span           int
	Name           string
	Qualifications string
	Record         domain.TrainingRecord
}

// planRows flattens users into one row per training record. A user without
// records still gets a single placeholder row.
func planRows(users []domain.User) []planRow {
	var rows []planRow
	for _, u := range users {
		quals := strings.Join(u.Qualifications, ", ")
		if len(u.TrainingLogs) == 0 {
			rows = append(rows, planRow{First: true, Empty: true, Span: 1, Name: u.Name, Qualifications: quals})
			continue
		}
		for i, rec := range u.TrainingLogs {
			rows = append(rows, planRow{
				First:          i == 0,
				Span:           len(u.TrainingLogs),
				Name:           u.Name,
				Qualifications: quals,
				Record:         rec,
			})
		}
	}
	return rows
}

// TrainingPlanHTML writes the annual training plan table with sign-off boxes.
func (f *Formatter) TrainingPlanHTML(w io.Writer, year int, users []domain.User) error {
	data := struct {
		Organization string
		PrintedAt    time.Time
		Year         int
		Rows         []planRow
	}{f.org, status.DateOf(f.now()), year, planRows(users)}
	if err := f.tmpl.ExecuteTemplate(w, "training_plan.html", data); err != nil {
		return fmt.Errorf("render training plan %d: %w", year, err)
	}
	return nil
}
