package usecase

import (
	"errors"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
)

// Outcome labels reported to UserMutationMetrics.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// MutationOutcome classifies the error returned by a mutation.
func MutationOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrInvalidField):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrDuplicate):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrDeletionForbidden):
		return OutcomeForbidden
	default:
		return OutcomeError
	}
}
