package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"labqms/internal/blob"
	"labqms/internal/status"
	"labqms/pkg/domain"
)

// Archive prefixes.
const (
	LoanSlipPrefix        = "loan-slips/"
	TrainingPlanPrefix    = "training-plans/"
	CalibrationPlanPrefix = "calibration-plans/"
)

// Content types of generated documents.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Archiver renders documents and keeps a copy in the document archive.
// Plans are stored under a timestamped key so every print is retained; a
// loan slip is stored once per loan.
type Archiver struct {
	store  blob.Store
	format *Formatter
}

// NewArchiver binds a formatter to a store.
func NewArchiver(store blob.Store, format *Formatter) *Archiver {
	return &Archiver{store: store, format: format}
}

// Store returns the backing archive store.
func (a *Archiver) Store() blob.Store { return a.store }

// Document is a rendered file together with where it was archived.
type Document struct {
	Info blob.Info
	Body []byte
}

// stamp names a plan print; the random suffix keeps two prints within the
// same second apart.
func (a *Archiver) stamp() string {
	return a.format.now().UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

func (a *Archiver) put(ctx context.Context, key, contentType string, body []byte, meta map[string]string) (Document, error) {
	info, err := a.store.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{ContentType: contentType, Metadata: meta})
	if err != nil {
		return Document{}, fmt.Errorf("archive %s: %w", key, err)
	}
	return Document{Info: info, Body: body}, nil
}

// LoanSlip renders the slip for loan and archives it under
// loan-slips/<instrumentNo>/<loanID>.html. Reprinting returns the stored
// copy's metadata with a freshly rendered body.
func (a *Archiver) LoanSlip(ctx context.Context, loan domain.LoanRecord) (Document, error) {
	var buf bytes.Buffer
	if err := a.format.LoanSlipHTML(&buf, loan); err != nil {
		return Document{}, err
	}
	key := fmt.Sprintf("%s%s/%s.html", LoanSlipPrefix, loan.InstrumentNo, loan.ID)
	doc, err := a.put(ctx, key, ContentTypeHTML, buf.Bytes(), map[string]string{
		"instrument": loan.InstrumentNo,
		"loan":       loan.ID,
	})
	if errors.Is(err, blob.ErrExists) {
		info, herr := a.store.Head(ctx, key)
		if herr != nil {
			return Document{}, herr
		}
		return Document{Info: info, Body: buf.Bytes()}, nil
	}
	return doc, err
}

// TrainingPlanHTML renders and archives the printable plan for year.
func (a *Archiver) TrainingPlanHTML(ctx context.Context, year int, users []domain.User) (Document, error) {
	var buf bytes.Buffer
	if err := a.format.TrainingPlanHTML(&buf, year, users); err != nil {
		return Document{}, err
	}
	key := fmt.Sprintf("%s%d/%s.html", TrainingPlanPrefix, year, a.stamp())
	return a.put(ctx, key, ContentTypeHTML, buf.Bytes(), map[string]string{"year": strconv.Itoa(year)})
}

// TrainingPlanXLSX renders and archives the plan workbook for year.
func (a *Archiver) TrainingPlanXLSX(ctx context.Context, year int, users []domain.User) (Document, error) {
	var buf bytes.Buffer
	if err := a.format.TrainingPlanXLSX(&buf, year, users); err != nil {
		return Document{}, err
	}
	key := fmt.Sprintf("%s%d/%s.xlsx", TrainingPlanPrefix, year, a.stamp())
	return a.put(ctx, key, ContentTypeXLSX, buf.Bytes(), map[string]string{"year": strconv.Itoa(year)})
}

// CalibrationPlanXLSX renders and archives the calibration calendar for year.
func (a *Archiver) CalibrationPlanXLSX(ctx context.Context, year int, plan []status.PlanEntry) (Document, error) {
	var buf bytes.Buffer
	if err := a.format.CalibrationPlanXLSX(&buf, year, plan); err != nil {
		return Document{}, err
	}
	key := fmt.Sprintf("%s%d/%s.xlsx", CalibrationPlanPrefix, year, a.stamp())
	return a.put(ctx, key, ContentTypeXLSX, buf.Bytes(), map[string]string{"year": strconv.Itoa(year)})
}

// List returns archived documents under prefix.
func (a *Archiver) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	return a.store.List(ctx, prefix)
}
