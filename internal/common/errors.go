// Package common holds the errors and helpers shared by storage, the sheet
// exchange and the command line.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Storage.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")
)

// Google Sheets.
var (
	ErrSheetsConnection = errors.New("google sheets connection failed")
	ErrSheetNotFound    = errors.New("sheet not found")
)

// ErrImportRejected means a price sheet had row errors and nothing was saved.
var ErrImportRejected = errors.New("price sheet has errors")

// Configuration.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message written for the operator alongside the error
// that caused it. The command line prints only UserMessage.
type UserError struct {
	Err         error
	UserMessage string
}

// NewUserError wraps err with an operator-facing message.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a spreadsheet call is worth repeating.
// Cancellation is final; a deadline on one attempt is not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var marked *RetryableError
	if errors.As(err, &marked) {
		return marked.Retryable
	}

	for _, transient := range []error{ErrRateLimit, ErrSheetsConnection, context.DeadlineExceeded} {
		if errors.Is(err, transient) {
			return true
		}
	}
	return false
}
