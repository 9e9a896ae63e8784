package domain

import (
	"errors"
	"strings"
	"testing"
)

func validCandidate() UserCandidate {
	return NewUserCandidate("alice", "alice@example.com", "argon2id$hash")
}

func TestValidateCandidateAcceptsValidInput(t *testing.T) {
	if err := ValidateCandidate(validCandidate()); err != nil {
		t.Fatalf("expected candidate to pass, got %v", err)
	}
}

func TestValidateCandidateViolations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*UserCandidate)
		field  string
		reason string
	}{
		{"blank username", func(c *UserCandidate) { c.Username = "   " }, FieldUsername, "required"},
		{"short username", func(c *UserCandidate) { c.Username = "ab" }, FieldUsername, "too short"},
		{"long username", func(c *UserCandidate) { c.Username = strings.Repeat("a", 51) }, FieldUsername, "too long"},
		{"empty email", func(c *UserCandidate) { c.Email = "" }, FieldEmail, "required"},
		{"malformed email", func(c *UserCandidate) { c.Email = "not-an-email" }, FieldEmail, "malformed"},
		{"long email", func(c *UserCandidate) { c.Email = strings.Repeat("a", 90) + "@example.com" }, FieldEmail, "too long"},
		{"blank hash", func(c *UserCandidate) { c.PasswordHash = "" }, FieldPasswordHash, "required"},
		{"enabled unset", func(c *UserCandidate) { c.Enabled = nil }, FieldEnabled, "required"},
		{"non expired unset", func(c *UserCandidate) { c.AccountNonExpired = nil }, FieldAccountNonExpired, "required"},
		{"non locked unset", func(c *UserCandidate) { c.AccountNonLocked = nil }, FieldAccountNonLocked, "required"},
		{"credentials unset", func(c *UserCandidate) { c.CredentialsNonExpired = nil }, FieldCredentialsNonExpired, "required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candidate := validCandidate()
			tc.mutate(&candidate)

			err := ValidateCandidate(candidate)
			var fieldErr *InvalidFieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected InvalidFieldError, got %v", err)
			}
			if fieldErr.Field != tc.field || fieldErr.Reason != tc.reason {
				t.Fatalf("expected %s/%s, got %s/%s", tc.field, tc.reason, fieldErr.Field, fieldErr.Reason)
			}
			if !errors.Is(err, ErrInvalidField) {
				t.Fatalf("expected errors.Is(err, ErrInvalidField)")
			}
		})
	}
}

func TestValidateCandidateOrderIsStable(t *testing.T) {
	candidate := UserCandidate{Username: "x", Email: "bad"}

	err := ValidateCandidate(candidate)
	var fieldErr *InvalidFieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldUsername {
		t.Fatalf("expected username to be reported first, got %v", err)
	}

	candidate.Username = "valid"
	err = ValidateCandidate(candidate)
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldEmail {
		t.Fatalf("expected email to be reported second, got %v", err)
	}

	candidate.Email = "valid@example.com"
	err = ValidateCandidate(candidate)
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldPasswordHash {
		t.Fatalf("expected password hash to be reported third, got %v", err)
	}

	candidate.PasswordHash = "hash"
	err = ValidateCandidate(candidate)
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldEnabled {
		t.Fatalf("expected enabled flag to be reported fourth, got %v", err)
	}
}

func TestValidateCandidateCountsRunes(t *testing.T) {
	candidate := validCandidate()
	candidate.Username = "äöü"
	if err := ValidateCandidate(candidate); err != nil {
		t.Fatalf("expected three-rune username to pass, got %v", err)
	}

	candidate.Username = strings.Repeat("é", 50)
	if err := ValidateCandidate(candidate); err != nil {
		t.Fatalf("expected fifty-rune username to pass, got %v", err)
	}
}

func TestValidatePatchChecksOnlySetFields(t *testing.T) {
	if err := ValidatePatch(UserPatch{}); err != nil {
		t.Fatalf("expected empty patch to pass, got %v", err)
	}

	short := "ab"
	err := ValidatePatch(UserPatch{Username: &short})
	var fieldErr *InvalidFieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldUsername {
		t.Fatalf("expected username violation, got %v", err)
	}

	malformed := "nope"
	err = ValidatePatch(UserPatch{Email: &malformed})
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldEmail {
		t.Fatalf("expected email violation, got %v", err)
	}

	blank := " "
	err = ValidatePatch(UserPatch{PasswordHash: &blank})
	if !errors.As(err, &fieldErr) || fieldErr.Field != FieldPasswordHash {
		t.Fatalf("expected password hash violation, got %v", err)
	}
}

func TestValidateDeletionCardinalityBoundary(t *testing.T) {
	if err := ValidateDeletionCardinality(100, 100); err != nil {
		t.Fatalf("expected count equal to ceiling to pass, got %v", err)
	}

	err := ValidateDeletionCardinality(101, 100)
	var ceilingErr *CeilingExceededError
	if !errors.As(err, &ceilingErr) {
		t.Fatalf("expected CeilingExceededError, got %v", err)
	}
	if ceilingErr.Count != 101 || ceilingErr.Ceiling != 100 {
		t.Fatalf("unexpected error payload: %+v", ceilingErr)
	}
	if !errors.Is(err, ErrCeilingExceeded) {
		t.Fatalf("expected errors.Is(err, ErrCeilingExceeded)")
	}

	if err := ValidateDeletionCardinality(0, 1); err != nil {
		t.Fatalf("expected empty deletion to pass, got %v", err)
	}
}
