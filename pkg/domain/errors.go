package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by mutation operations.
var (
	// ErrForbidden matches every AuthorizationError.
	ErrForbidden = errors.New("forbidden")
	// ErrDeclined reports that the operator cancelled a confirmation dialog.
	// Nothing changed; callers treat it as a no-op rather than a failure.
	ErrDeclined = errors.New("confirmation declined")
	// ErrIdentifierMismatch reports a wrong answer to a hard-delete challenge.
	ErrIdentifierMismatch = errors.New("儀器編號輸入錯誤")
	// ErrNoCurrentUser reports an operation that needs an identified operator.
	ErrNoCurrentUser = errors.New("錯誤：無法確認操作人員身分")
	// ErrProtectedUser reports an attempt to delete the administrator account.
	ErrProtectedUser = errors.New("系統管理員帳號不可刪除")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	// ErrInvalidCredentials never distinguishes unknown users from wrong passwords.
	ErrInvalidCredentials = errors.New("帳號或密碼錯誤")
	// ErrNotArchived reports a hard delete on an instrument that is still live.
	ErrNotArchived = errors.New("instrument is not archived")
	ErrValidation  = errors.New("validation failed")
)

// AuthorizationError reports an actor missing every qualification an
// operation accepts.
type AuthorizationError struct {
	Operation string
	Required  []string
}

func (e AuthorizationError) Error() string {
	return fmt.Sprintf("權限不足：%s 需要 %s", e.Operation, strings.Join(e.Required, " 或 "))
}

// Is lets errors.Is(err, ErrForbidden) match.
func (e AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// NotFoundError reports a missing entity by key.
type NotFoundError struct {
	Entity EntityType
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError reports a strict create colliding with an existing key.
type DuplicateError struct {
	Entity EntityType
	Key    string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// Is lets errors.Is(err, ErrAlreadyExists) match.
func (e DuplicateError) Is(target error) bool { return target == ErrAlreadyExists }

// FieldError names one invalid input field.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError lists the input fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }
