// Package apperror holds the error taxonomy shared by every use case.
// Handlers map these to HTTP status codes with errors.As.
package apperror

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type InsufficientStockError struct {
	ItemID    int64
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, needed: %d", e.ItemName, e.Available, e.Requested)
}

type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func Conflict(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a driver or commit failure. Nothing partial was committed,
// so callers may retry the whole operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage failure (%s): %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err unless it is nil or already part of the taxonomy.
func Storage(op string, err error) error {
	if err == nil || IsBusiness(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsBusiness reports whether err is a rule violation rather than an infrastructure fault.
func IsBusiness(err error) bool {
	var (
		nf *NotFoundError
		is *InsufficientStockError
		cf *ConflictError
		ve *ValidationError
	)
	return errors.As(err, &nf) || errors.As(err, &is) || errors.As(err, &cf) || errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInsufficientStock(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}

func IsConflict(err error) bool {
	var cf *ConflictError
	return errors.As(err, &cf)
}
