package domain

import "strings"

// DegradationPolicyMode enumerates how request guards behave when their backing store is unavailable.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient lets requests through when the guard cannot decide.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict rejects requests whenever the guard cannot decide.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationReason captures why a guard could not reach a decision.
type DegradationReason string

const (
	// DegradationReasonRateLimitStoreUnavailable denotes a failed rate-limit store call.
	DegradationReasonRateLimitStoreUnavailable DegradationReason = "rate_limit_store_unavailable"
	// DegradationReasonRateLimitStoreMissing denotes a service started without a rate-limit store.
	DegradationReasonRateLimitStoreMissing DegradationReason = "rate_limit_store_missing"
)

// DegradationPolicy decides whether a degraded guard may fall back to admitting requests.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy constructs a policy with the provided mode, defaulting to lenient when unspecified.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeStrict {
		mode = DegradationPolicyModeLenient
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode normalises textual input into a supported policy mode.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DegradationPolicyModeStrict):
		return DegradationPolicyModeStrict
	default:
		return DegradationPolicyModeLenient
	}
}

func (p DegradationPolicy) Mode() DegradationPolicyMode {
	if p.mode == "" {
		return DegradationPolicyModeLenient
	}
	return p.mode
}

// IsStrict indicates whether the policy rejects degraded states.
func (p DegradationPolicy) IsStrict() bool {
	return p.mode == DegradationPolicyModeStrict
}

// AllowsFallback determines if the policy permits continuing when the supplied reason occurs.
// The zero policy is lenient.
func (p DegradationPolicy) AllowsFallback(DegradationReason) bool {
	return !p.IsStrict()
}
