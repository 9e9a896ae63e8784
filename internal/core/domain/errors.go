package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidField matches every InvalidFieldError.
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicate matches every DuplicateError.
	ErrDuplicate = errors.New("duplicate value")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("user not found")
	// ErrDeletionForbidden matches every DeletionForbiddenError.
	ErrDeletionForbidden = errors.New("deletion forbidden")
	// ErrCeilingExceeded matches every CeilingExceededError.
	ErrCeilingExceeded = errors.New("deletion ceiling exceeded")
	// ErrInvariantViolation signals that the store reported a state that cannot exist,
	// such as more than one row removed for a single id.
	ErrInvariantViolation = errors.New("store invariant violated")
)

// Field names reported by validation and duplicate errors.
const (
	FieldUsername              = "username"
	FieldEmail                 = "email"
	FieldPasswordHash          = "password_hash"
	FieldEnabled               = "enabled"
	FieldAccountNonExpired     = "account_non_expired"
	FieldAccountNonLocked      = "account_non_locked"
	FieldCredentialsNonExpired = "credentials_non_expired"
)

// DeletionReason explains why a bulk deletion was refused.
type DeletionReason string

const (
	DeletionReasonEnvironment DeletionReason = "environment"
	DeletionReasonCeilingPre  DeletionReason = "ceiling-pre"
	DeletionReasonCeilingPost DeletionReason = "ceiling-post"
)

// InvalidFieldError reports a client-correctable input problem.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }

// DuplicateError names the unique field that collided. The colliding value is never carried.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError reports a missing user id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DeletionForbiddenError is returned when a bulk deletion gate refuses to proceed.
// Cause holds the CeilingExceededError for the ceiling gates.
type DeletionForbiddenError struct {
	Reason DeletionReason
	Cause  error
}

func (e *DeletionForbiddenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("delete all forbidden (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("delete all forbidden (%s)", e.Reason)
}

func (e *DeletionForbiddenError) Is(target error) bool { return target == ErrDeletionForbidden }

func (e *DeletionForbiddenError) Unwrap() error { return e.Cause }

// CeilingExceededError reports a deletion cardinality above the configured ceiling.
type CeilingExceededError struct {
	Count   int
	Ceiling int
}

func (e *CeilingExceededError) Error() string {
	return fmt.Sprintf("deletion of %d records exceeds ceiling %d", e.Count, e.Ceiling)
}

func (e *CeilingExceededError) Is(target error) bool { return target == ErrCeilingExceeded }
