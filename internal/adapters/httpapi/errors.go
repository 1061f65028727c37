package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"labqms/internal/report"
	"labqms/pkg/domain"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var ruleErr domain.RuleViolationError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNoCurrentUser):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrProtectedUser):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrNotArchived), errors.As(err, &ruleErr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIdentifierMismatch):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrBusy):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. Rule violations and validation
// failures carry their details.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var ruleErr domain.RuleViolationError
	if errors.As(err, &ruleErr) {
		body["violations"] = ruleErr.Result.Violations
	}
	var valErr domain.ValidationError
	if errors.As(err, &valErr) {
		body["fields"] = valErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// declined answers a cancelled confirmation: nothing changed, nothing failed.
func declined(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"declined": true})
}
