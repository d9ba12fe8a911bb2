package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrValidation marks malformed caller input.
var ErrValidation = errors.New("validation failed")

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError reports a malformed input field. The wrapped cause is kept
// for logs; errors.Is(err, ErrValidation) holds for every validation error.
func ValidationError(field string, cause error) *AppError {
	wrapped := ErrValidation
	if cause != nil {
		wrapped = fmt.Errorf("%w: %s: %w", ErrValidation, field, cause)
	}
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid " + field,
		HTTPStatus: http.StatusBadRequest,
		Err:        wrapped,
		Details:    map[string]any{"field": field},
	}
}

// NotFound builds a generic 404 error.
func NotFound(message string, err error) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, err)
}

// ValidationField returns the offending field of a validation error.
func ValidationField(err error) (string, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		return "", false
	}
	details, ok := appErr.Details.(map[string]any)
	if !ok {
		return "", false
	}
	field, ok := details["field"].(string)
	return field, ok
}
