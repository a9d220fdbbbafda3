// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"math"
)

// Domain failure taxonomy. Every core operation returns one of these
// (wrapped with context) or a plain storage error; no retries are attempted
// anywhere in the core, so each failure is terminal for that call.
var (
	// ErrNotFound indicates the referenced entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the entity exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidOperation indicates a state-machine rule was violated.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInsufficientFunds indicates a transfer source balance below the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrValidation indicates malformed input reaching the core.
	ErrValidation = errors.New("validation failed")
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

// Round2 rounds to two decimal places, the precision used for percentages
// and money throughout the ledger.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
