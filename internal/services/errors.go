package services

import (
	"errors"
	"fmt"

	"github.com/seeall/facturation/internal/validation"
)

// ErrNotFound is returned when a referenced client or document does not
// exist. Callers should not retry.
var ErrNotFound = errors.New("not_found")

// ValidationError reports invalid caller input. It is always raised before
// any persistence attempt, so no partial state is ever written.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Violations))
}

// ConflictError reports a state transition or deletion blocked by a
// referential guard, naming what blocks it so the caller can act.
type ConflictError struct {
	Code           string
	BlockingNumber string // document number standing in the way, if one
	BlockingCount  int    // number of blocking documents, for client deletion
}

func (e *ConflictError) Error() string {
	if e.BlockingNumber != "" {
		return fmt.Sprintf("%s: blocked by %s", e.Code, e.BlockingNumber)
	}
	if e.BlockingCount > 0 {
		return fmt.Sprintf("%s: %d blocking document(s)", e.Code, e.BlockingCount)
	}
	return e.Code
}

// StorageError wraps a failed store operation. The enclosing transaction
// has been rolled back in full when one of these surfaces.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
