package security

import (
	"strings"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
)

// PasswordPolicy applies the configured length bounds and zxcvbn strength score.
type PasswordPolicy struct {
	minLength int
	maxLength int
	minScore  int
}

// NewPasswordPolicy builds a policy from the password settings.
func NewPasswordPolicy(cfg config.PasswordSettings) *PasswordPolicy {
	return &PasswordPolicy{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
		minScore:  cfg.MinStrengthScore,
	}
}

// Validate checks password; inputs (username, email) penalise passwords derived from them.
func (p *PasswordPolicy) Validate(password string, inputs ...string) error {
	hints := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if trimmed := strings.TrimSpace(input); trimmed != "" {
			hints = append(hints, trimmed)
		}
	}

	return NewPasswordValidator(
		MinLengthRule(p.minLength),
		MaxLengthRule(p.maxLength),
		RequirePasswordStrengthRule(p.minScore, hints...),
	).Validate(password)
}

var _ port.PasswordPolicy = (*PasswordPolicy)(nil)
