package provenance

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every precondition failure
// aborts the whole operation with no partial mutation; the engine performs
// no local recovery or retry — callers resubmit with refreshed state.
var (
	// General errors
	ErrNotFound      = errors.New("provenance: not found")
	ErrAlreadyExists = errors.New("provenance: already exists")
	ErrInvalidInput  = errors.New("provenance: invalid input")
	ErrUnauthorized  = errors.New("provenance: unauthorized")

	// Registry errors
	ErrAlreadyRegistered = errors.New("provenance: user already registered")
	ErrInvalidRole       = errors.New("provenance: invalid role")

	// Platform errors
	ErrAlreadyInitialized = errors.New("provenance: platform already initialized")
	ErrNotInitialized     = errors.New("provenance: platform not initialized")
	ErrInvalidFee         = errors.New("provenance: platform fee exceeds cap")

	// Inventory errors
	ErrInsufficientStock = errors.New("provenance: insufficient stock")
	ErrAlreadyFulfilled  = errors.New("provenance: order already fulfilled")
	ErrNotDispatched     = errors.New("provenance: order not dispatched")

	// Inspection errors
	ErrAlreadyPaid      = errors.New("provenance: inspection already paid")
	ErrNotQualityPassed = errors.New("provenance: product not quality checked")

	// Accounting errors
	ErrInsufficientBalance = errors.New("provenance: insufficient balance")
	ErrBelowMinWithdrawal  = errors.New("provenance: amount below withdrawal minimum")
	ErrOverflow            = errors.New("provenance: amount or counter overflow")
	ErrTransferFailed      = errors.New("provenance: external wallet transfer failed")

	// Store errors
	ErrConflict    = errors.New("provenance: record modified concurrently")
	ErrStoreClosed = errors.New("provenance: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("provenance: validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the error is a concurrency conflict and the
// operation can be resubmitted with refreshed state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
