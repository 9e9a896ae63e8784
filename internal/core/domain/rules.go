package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	EmailMaxLength    = 100
)

var shapeValidator = validator.New()

// ValidateCandidate checks a record about to be created. Fields are checked in a fixed
// order so the first failure is stable: username, email, password hash, then the flags.
func ValidateCandidate(c UserCandidate) error {
	if err := validateUsername(c.Username); err != nil {
		return err
	}
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	if err := validatePasswordHash(c.PasswordHash); err != nil {
		return err
	}

	flags := []struct {
		name  string
		value *bool
	}{
		{FieldEnabled, c.Enabled},
		{FieldAccountNonExpired, c.AccountNonExpired},
		{FieldAccountNonLocked, c.AccountNonLocked},
		{FieldCredentialsNonExpired, c.CredentialsNonExpired},
	}
	for _, flag := range flags {
		if flag.value == nil {
			return &InvalidFieldError{Field: flag.name, Reason: "required"}
		}
	}
	return nil
}

// ValidatePatch applies the candidate rules to the fields a patch sets.
func ValidatePatch(p UserPatch) error {
	if p.Username != nil {
		if err := validateUsername(*p.Username); err != nil {
			return err
		}
	}
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.PasswordHash != nil {
		if err := validatePasswordHash(*p.PasswordHash); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDeletionCardinality fails when count exceeds ceiling. Deleting nothing is always allowed.
func ValidateDeletionCardinality(count, ceiling int) error {
	if count == 0 {
		return nil
	}
	if count > ceiling {
		return &CeilingExceededError{Count: count, Ceiling: ceiling}
	}
	return nil
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return &InvalidFieldError{Field: FieldUsername, Reason: "required"}
	}
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength {
		return &InvalidFieldError{Field: FieldUsername, Reason: "too short"}
	}
	if n > UsernameMaxLength {
		return &InvalidFieldError{Field: FieldUsername, Reason: "too long"}
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &InvalidFieldError{Field: FieldEmail, Reason: "required"}
	}
	if utf8.RuneCountInString(email) > EmailMaxLength {
		return &InvalidFieldError{Field: FieldEmail, Reason: "too long"}
	}
	if err := shapeValidator.Var(email, "email"); err != nil {
		return &InvalidFieldError{Field: FieldEmail, Reason: "malformed"}
	}
	return nil
}

func validatePasswordHash(hash string) error {
	if strings.TrimSpace(hash) == "" {
		return &InvalidFieldError{Field: FieldPasswordHash, Reason: "required"}
	}
	return nil
}
