package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConstraintViolation matches every ConstraintViolationError.
	ErrConstraintViolation = errors.New("repository: constraint violation")
)

// ConstraintViolationError reports a write rejected by a uniqueness constraint. Constraint
// holds the database constraint name when the driver exposes it.
type ConstraintViolationError struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s: %v", ErrConstraintViolation, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrConstraintViolation, e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

func (e *ConstraintViolationError) Unwrap() error { return e.Err }
