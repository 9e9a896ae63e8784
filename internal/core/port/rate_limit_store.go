package port

import (
	"context"
	"time"
)

// RateLimitStore keeps per-identifier attempt timestamps for sliding-window limits on
// the user write endpoints.
type RateLimitStore interface {
	// TrimWindow drops attempts older than reference minus window.
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	// OldestAttempt reports false when the window holds no attempts.
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
