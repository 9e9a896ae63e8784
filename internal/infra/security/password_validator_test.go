package security

import (
	"errors"
	"strings"
	"testing"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
)

func violationCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var vErr *PasswordValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	return vErr.Code
}

func TestPasswordPolicyLengthBounds(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordSettings{MinLength: 8, MaxLength: 100})

	cases := map[string]string{
		"1234567":                "min_length",
		"12345678":               "",
		strings.Repeat("a", 100): "",
		strings.Repeat("a", 101): "max_length",
		"пароль12":               "",
	}

	for password, want := range cases {
		if got := violationCode(t, policy.Validate(password)); got != want {
			t.Fatalf("password of %d runes: expected %q, got %q", len([]rune(password)), want, got)
		}
	}
}

func TestPasswordPolicyStrengthUsesInputs(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordSettings{MinLength: 8, MaxLength: 100, MinStrengthScore: 3})

	strong := "C0mplex!Passphrase#2025"
	if strength := zxcvbn.PasswordStrength(strong, nil); strength.Score < 3 {
		t.Fatalf("test password unexpectedly weak: score=%d", strength.Score)
	}
	if err := policy.Validate(strong, "alice", "alice@example.com"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}

	if got := violationCode(t, policy.Validate("Password123")); got != "weak_password" {
		t.Fatalf("expected weak_password, got %q", got)
	}
}

func TestValidatorStopsAtFirstViolation(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		PasswordRuleFunc(func(string) error { return &PasswordValidationError{Code: "custom"} }),
	)

	if got := violationCode(t, validator.Validate("abc")); got != "min_length" {
		t.Fatalf("expected min_length first, got %q", got)
	}
	if got := violationCode(t, validator.Validate("abcd")); got != "custom" {
		t.Fatalf("expected custom rule to run, got %q", got)
	}

	var nilValidator *PasswordValidator
	if err := nilValidator.Validate("abcd"); err == nil {
		t.Fatalf("expected nil validator to fail")
	}
}
