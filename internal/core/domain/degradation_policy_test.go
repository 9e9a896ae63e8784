package domain

import "testing"

func TestParseDegradationPolicyMode(t *testing.T) {
	cases := map[string]DegradationPolicyMode{
		"strict":   DegradationPolicyModeStrict,
		" STRICT ": DegradationPolicyModeStrict,
		"lenient":  DegradationPolicyModeLenient,
		"":         DegradationPolicyModeLenient,
		"bogus":    DegradationPolicyModeLenient,
	}
	for in, want := range cases {
		if got := ParseDegradationPolicyMode(in); got != want {
			t.Fatalf("ParseDegradationPolicyMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDegradationPolicyFallback(t *testing.T) {
	if !(DegradationPolicy{}).AllowsFallback(DegradationReasonRateLimitStoreUnavailable) {
		t.Fatalf("zero policy should be lenient")
	}
	if (DegradationPolicy{}).Mode() != DegradationPolicyModeLenient {
		t.Fatalf("zero policy should report lenient mode")
	}

	strict := NewDegradationPolicy(DegradationPolicyModeStrict)
	if strict.AllowsFallback(DegradationReasonRateLimitStoreUnavailable) {
		t.Fatalf("strict policy must not fall back")
	}
	if NewDegradationPolicy("unknown").IsStrict() {
		t.Fatalf("unknown mode should default to lenient")
	}
}
