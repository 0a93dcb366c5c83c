// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s: %v", e.StatusCode, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

// Is reports whether target is an APIError with the same Code, so that
// errors.Is(err, ErrNotFound) holds for any copy made by WithDetails.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Unwrap exposes the internal cause attached with WithCause.
func (e *APIError) Unwrap() error {
	return e.cause
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details. The receiver is never modified.
func (e *APIError) WithDetails(details interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of e wrapping cause. The cause is logged, never serialized.
func (e *APIError) WithCause(cause error) *APIError {
	cp := *e
	cp.cause = cause
	return &cp
}

var (
	ErrBadRequest         = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrValidation         = NewAPIError(http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed.")
	ErrInvalidState       = NewAPIError(http.StatusBadRequest, "INVALID_STATE", "The resource is not in a state that allows this operation.")
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden          = NewAPIError(http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource.")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	ErrConflict           = NewAPIError(http.StatusConflict, "CONFLICT", "A conflict occurred with the current state of the resource.")
	ErrTooManyRequests    = NewAPIError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded. Please try again later.")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")
	ErrMatching           = NewAPIError(http.StatusInternalServerError, "MATCHING_ERROR", "Failed to generate donation matches.")
	ErrStorage            = NewAPIError(http.StatusInternalServerError, "STORAGE_ERROR", "A storage operation failed.")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The server is currently unable to handle the request.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewValidationAPIError builds a VALIDATION_ERROR carrying per-field details.
func NewValidationAPIError(details interface{}) *APIError {
	return ErrValidation.WithDetails(details)
}

// FieldError is shorthand for a single-field validation failure.
func FieldError(field, message string) *APIError {
	return NewValidationAPIError(map[string]string{field: message})
}

// StorageFailure wraps a persistence error as STORAGE_ERROR unless it already is an APIError.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := IsAPIError(err); ok {
		return err
	}
	return ErrStorage.WithCause(fmt.Errorf("%s: %w", op, err))
}

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		name := strings.ToLower(field)
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", name)
		case "email":
			message = fmt.Sprintf("The %s field must be a valid email address.", name)
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", name, e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", name, e.Param())
		case "oneof":
			message = fmt.Sprintf("The %s field must be one of the following values: %s.", name, e.Param())
		case "latitude":
			message = fmt.Sprintf("The %s field must be a valid latitude.", name)
		case "longitude":
			message = fmt.Sprintf("The %s field must be a valid longitude.", name)
		case "uuid":
			message = fmt.Sprintf("The %s field must be a valid UUID.", name)
		case "required_with":
			message = fmt.Sprintf("The %s field is required when %s is present.", name, strings.ToLower(e.Param()))
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}

// IsDuplicateKey reports whether err is a unique-constraint violation from
// PostgreSQL or SQLite, translated by GORM or not.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "unique constraint failed")
}
