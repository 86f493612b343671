// Package errors provides error code definitions shared across the data layer.
package errors

import "fmt"

// ErrorCode represents a unique, stable error code surfaced to callers.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Local store errors
	ErrStorage      ErrorCode = "STORAGE_ERROR"
	ErrStorageQuota ErrorCode = "STORAGE_QUOTA_EXCEEDED"
	ErrMigration    ErrorCode = "MIGRATION_FAILED"

	// Document errors
	ErrDocumentNotFound ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrDocumentInvalid  ErrorCode = "DOCUMENT_INVALID"

	// Action queue errors
	ErrActionNotFound ErrorCode = "ACTION_NOT_FOUND"
	ErrActionInvalid  ErrorCode = "ACTION_INVALID"
	ErrQueueFull      ErrorCode = "QUEUE_FULL"

	// Sync errors
	ErrSyncNotConfigured ErrorCode = "SYNC_NOT_CONFIGURED"
	ErrSyncRetryable     ErrorCode = "SYNC_RETRYABLE"
	ErrSyncNonRetryable  ErrorCode = "SYNC_NON_RETRYABLE"
	ErrSyncConflict      ErrorCode = "SYNC_CONFLICT"
	ErrSyncTimeout       ErrorCode = "SYNC_TIMEOUT"
	ErrSyncOffline       ErrorCode = "SYNC_OFFLINE"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code. Nested errors are unwrapped
// so wrapped AppErrors still match.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Retryable reports whether a sync error is worth re-attempting. Transport
// failures, timeouts and 5xx responses are transient; validation failures
// and version conflicts are permanent until the underlying data changes.
func Retryable(err error) bool {
	return Is(err, ErrSyncRetryable) || Is(err, ErrSyncTimeout)
}

// MustTransition panics when a state-machine precondition is violated. An
// invalid transition indicates a concurrency bug, not a runtime condition,
// so it fails loudly instead of returning an error.
func MustTransition(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("invalid state transition: "+format, args...))
	}
}
