// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Schema errors. These fail the entire run with no partial processing.
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptyDataset   = errors.New("dataset contains no data rows")

	// Model-fit errors. Fatal before any scoring happens.
	ErrSingleClass = errors.New("training split contains a single outcome class")
	ErrTooFewRows  = errors.New("training split has too few rows")

	// Configuration errors. Validated before any work is done.
	ErrBadThresholds = errors.New("invalid threshold configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing configuration")

	// Staging store errors.
	ErrCountMismatch = errors.New("staged row count does not match local row count")
	ErrStoreNotFound = errors.New("staging table not found")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable reports whether an operation that returned err may be tried
// again. The only caller that retries is the external export, where most
// failures are transient, so errors count as retryable unless a
// RetryableError marks them permanent.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
