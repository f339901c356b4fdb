// Package errs defines the error taxonomy shared by the registry, the
// session factory and the entity repositories. Callers use errors.Is /
// errors.As to map these onto transport status codes.
package errs

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrTenantNotFound means the tenant id or name has no registry row.
	// A client error, not an infrastructure fault.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrStorageUnavailable means the tenant exists in the registry but its
	// physical storage could not be opened or provisioned. Callers may retry
	// with backoff.
	ErrStorageUnavailable = errors.New("tenant storage unavailable")

	// ErrNotFound means a referenced entity row is absent.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports missing or malformed input on a create or list
// operation. It never reaches the storage layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DuplicateError reports a unique-constraint violation (tenant name,
// username, email).
type DuplicateError struct {
	Entity string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Entity)
}

// StorageError wraps an unexpected storage-engine failure. The transaction
// it occurred in has already been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Classify maps a storage-engine error from operation op to the taxonomy:
// duplicate-key violations become DuplicateError, record-not-found becomes
// ErrNotFound, everything else is wrapped as a StorageError. Errors already
// belonging to the taxonomy pass through unchanged.
func Classify(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var de *DuplicateError
	if errors.As(err, &ve) || errors.As(err, &de) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrTenantNotFound) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Entity: entity}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}
