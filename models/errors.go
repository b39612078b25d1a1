package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotUnavailable means the requested range conflicts with the ledger.
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrNotFound        = errors.New("not found")
	// ErrVersionConflict is returned when a calendar document changed since it was read.
	ErrVersionConflict = errors.New("calendar document version conflict")
	ErrAlreadyExists   = errors.New("already exists")
	// ErrAlreadyRunning is returned when a reconciliation pass is skipped.
	ErrAlreadyRunning = errors.New("reconciliation already running")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// TransientStoreError wraps a read or write failure against a store.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// StoreError wraps err unless it is already a domain error callers branch on.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var te *TransientStoreError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlotUnavailable) || errors.As(err, &ve) || errors.As(err, &te) {
		return err
	}
	return &TransientStoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransient(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}
