// Package errors defines the structured error taxonomy shared across the console.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeAlreadyRunning indicates the backend refused to start a duplicate job.
	ErrCodeAlreadyRunning ErrorCode = "already_running"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeTransport indicates a transport-level failure (stream broken, connect refused).
	// Transport errors are handled internally by the watcher and never surface to consumers.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeStale indicates a job produced no events within the dead-man timeout.
	ErrCodeStale ErrorCode = "stale"
	// ErrCodeUnavailable indicates the backend could not be reached or answered non-2xx.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// JobID identifies the job the error relates to (optional)
	JobID string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// AlreadyRunning creates an error indicating the backend reported a job of the
// same kind is already in flight. JobID carries the running job's identifier
// when the backend includes it, so callers can attach instead of retrying.
func AlreadyRunning(message, jobID string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyRunning,
		Message: message,
		JobID:   jobID,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Transport creates a transport-level error. These trigger the polling
// fallback and are never surfaced to subscribers.
func Transport(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: message,
		Cause:   cause,
	}
}

// Stale creates the synthetic dead-man timeout error for a job.
func Stale(jobID string) *AppError {
	return &AppError{
		Code:    ErrCodeStale,
		Message: "no progress received from backend",
		JobID:   jobID,
	}
}

// Unavailable creates an error indicating the backend could not be reached.
func Unavailable(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeUnavailable,
		Message: message,
		Cause:   cause,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsAlreadyRunning checks if an error is an AlreadyRunning error.
func IsAlreadyRunning(err error) bool {
	return isCode(err, ErrCodeAlreadyRunning)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsStale checks if an error is a Stale error.
func IsStale(err error) bool {
	return isCode(err, ErrCodeStale)
}

// IsUnavailable checks if an error is an Unavailable error.
func IsUnavailable(err error) bool {
	return isCode(err, ErrCodeUnavailable)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetJobID returns the JobID from an error, or empty string if not an AppError or no job set.
func GetJobID(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.JobID
	}
	return ""
}
