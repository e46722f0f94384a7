// Package errors holds the typed errors that the HTTP layer renders into
// the response envelope. Anything else surfaces as internal_error.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeForbidden   ErrorType = "forbidden"
	ErrorTypeInternal    ErrorType = "internal_error"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeRateLimited ErrorType = "rate_limited"
)

// AppError is an error with a stable machine type and the HTTP status it
// maps to.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
}

// only the first detail is kept
func build(t ErrorType, code int, message string, details []string) *AppError {
	e := &AppError{Type: t, Message: message, Code: code}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func NewValidationError(message string, details ...string) *AppError {
	return build(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

func NewBadRequestError(message string, details ...string) *AppError {
	return build(ErrorTypeBadRequest, http.StatusBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return build(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

func NewConflictError(message string, details ...string) *AppError {
	return build(ErrorTypeConflict, http.StatusConflict, message, details)
}

func NewForbiddenError(message string, details ...string) *AppError {
	return build(ErrorTypeForbidden, http.StatusForbidden, message, details)
}

// NewInternalError is for failures the caller cannot fix. details is logged
// by the caller, not rendered.
func NewInternalError(message string, details ...string) *AppError {
	return build(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// RateLimitError carries the time until the caller's window resets.
type RateLimitError struct {
	*AppError
	RetryAfter time.Duration
}

func (e *RateLimitError) Unwrap() error { return e.AppError }

func NewRateLimitedError(retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		AppError:   build(ErrorTypeRateLimited, http.StatusTooManyRequests, "Too many requests, please try again later", nil),
		RetryAfter: retryAfter,
	}
}

// GetAppError returns the first AppError in err's chain, or nil.
func GetAppError(err error) *AppError {
	return as[*AppError](err)
}

func GetRateLimitError(err error) *RateLimitError {
	return as[*RateLimitError](err)
}

func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

func hasType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func as[T error](err error) T {
	var target T
	errors.As(err, &target)
	return target
}

// Unique-violation texts of the supported drivers: MySQL, PostgreSQL, SQLite.
var duplicateMarkers = []string{
	"Duplicate entry",
	"duplicate key",
	"unique constraint",
	"UNIQUE constraint failed",
}

// IsDuplicateError reports whether err is a unique-key violation from the
// database driver.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range duplicateMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
