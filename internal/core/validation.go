package core

import (
	"errors"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"labqms/pkg/domain"
)

// CalibrationInput is the operator-entered part of a calibration record. The
// next date is derived from the instrument's cycle.
type CalibrationInput struct {
	Date          time.Time                `json:"date" validate:"required"`
	Vendor        string                   `json:"vendor" validate:"required"`
	CertificateNo string                   `json:"certificateNo" validate:"required"`
	Result        domain.CalibrationResult `json:"result" validate:"oneof=合格 不合格"`
}

// LoanInput is the operator-entered part of a loan record.
type LoanInput struct {
	CustomerName       string          `json:"customerName" validate:"required"`
	Borrower           string          `json:"borrower" validate:"required"`
	EmployeeID         string          `json:"employeeId"`
	LoanType           domain.LoanType `json:"loanType" validate:"oneof=單位 個人"`
	LoanDate           time.Time       `json:"loanDate" validate:"required"`
	ExpectedReturnDate time.Time       `json:"expectedReturnDate" validate:"required,gtefield=LoanDate"`
	Purpose            string          `json:"purpose"`
}

// UserInput carries a user edit. A blank password keeps the stored hash on
// update and falls back to the default password on create.
type UserInput struct {
	Username       string   `json:"username" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Password       string   `json:"password"`
	Qualifications []string `json:"qualifications" validate:"dive,required"`
}

type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() inputValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidationMapRules(map[string]string{
		"InstrumentNo":     "required",
		"InstrumentName":   "required",
		"CalibrationCycle": "gt=0",
		"PurchaseAmount":   "gte=0",
	}, domain.Instrument{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Lot":        "required",
		"Name":       "required",
		"ExpiryDate": "required",
		"Stock":      "gte=0",
	}, domain.Material{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Date":        "required",
		"Description": "required",
		"Cost":        "gte=0",
	}, domain.MaintenanceRecord{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Type":       "oneof=內訓 外訓",
		"CourseName": "required",
		"Hours":      "gte=0",
		"Date":       "required",
	}, domain.TrainingRecord{})
	return inputValidator{v: v}
}

// Check validates value and converts failures into a domain.ValidationError.
func (iv inputValidator) Check(value any) error {
	err := iv.v.Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := domain.ValidationError{Fields: make([]domain.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
