package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeStorage      ErrorType = "storage"
	ErrorTypeEmail        ErrorType = "email"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError is an unexported helper to create AppError instances
func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewNotFoundError(code, message string) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, nil)
}

func NewUnauthorizedError(code, message string) *AppError {
	return newAppError(ErrorTypeUnauthorized, code, message, nil)
}

func NewForbiddenError(code, message string) *AppError {
	return newAppError(ErrorTypeForbidden, code, message, nil)
}

func NewConflictError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConflict, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

func NewEmailError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeEmail, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps an error type to the status code the API surfaces it
// with. Storage and internal failures collapse into 500 so query detail
// never reaches clients.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError unwraps err into an *AppError, or wraps it as an internal
// error so callers always have a typed error to surface.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(ErrCodeInternal, "internal error", err)
}

// Common error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotOwner           = "NOT_OWNER"
	ErrCodeJobNotFound        = "JOB_NOT_FOUND"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeQueryFailed        = "QUERY_FAILED"
	ErrCodeEmailSendFailed    = "EMAIL_SEND_FAILED"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
	ErrCodeInternal           = "INTERNAL"
)
