package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/core/domain"
	"github.com/yusay1498/vibe-coding-practice-api/internal/core/port"
)

const (
	// ProblemTypeRateLimited identifies 429 problem documents.
	ProblemTypeRateLimited = "https://users.vibe-coding-practice.example.com/errors/rate-limit-exceeded"
	// ProblemTypeRateLimitUnavailable identifies 503 problem documents under a strict degradation policy.
	ProblemTypeRateLimitUnavailable = "https://users.vibe-coding-practice.example.com/errors/rate-limit-unavailable"
	rateLimitProblemTitle           = "Rate Limit Exceeded"
)

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window rules backed by a port.RateLimitStore.
// Store failures are resolved by the degradation policy: lenient proceeds with a warning,
// strict answers 503.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	clock  port.Clock
	policy domain.DegradationPolicy
}

type decision struct {
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// ProblemDetails is an RFC 9457 problem document.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewRateLimiter builds a limiter. With a nil store requests pass unless the policy is strict.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		clock:  systemClock{},
	}
}

// WithClock swaps the time source.
func (rl *RateLimiter) WithClock(clock port.Clock) *RateLimiter {
	if clock != nil {
		rl.clock = clock
	}
	return rl
}

// WithDegradationPolicy sets how store failures are handled.
func (rl *RateLimiter) WithDegradationPolicy(policy domain.DegradationPolicy) *RateLimiter {
	rl.policy = policy
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules in order.
// Headers describe the most restrictive rule that admitted the request, or the rule that rejected it.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if len(active) == 0 {
			c.Next()
			return
		}
		if rl.store == nil {
			if !rl.policy.AllowsFallback(domain.DegradationReasonRateLimitStoreMissing) {
				rl.unavailable(c)
				return
			}
			c.Next()
			return
		}

		now := rl.clock.Now()
		var tightest *decision

		for _, rule := range active {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			d, err := rl.evaluate(c, rule, rule.Name+":"+identifier, now)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("policy", string(rl.policy.Mode())),
					zap.String("trace_id", GetTraceID(c)),
					zap.Error(err),
				)
				if !rl.policy.AllowsFallback(domain.DegradationReasonRateLimitStoreUnavailable) {
					rl.unavailable(c)
					return
				}
				continue
			}

			if !d.allowed {
				rl.logger.Info("rate limit exceeded",
					zap.String("rule", rule.Name),
					zap.String("path", c.Request.URL.Path),
					zap.String("trace_id", GetTraceID(c)),
				)
				writeRateLimitHeaders(c, d)
				rl.reject(c, d)
				return
			}

			if tightest == nil || d.remaining < tightest.remaining ||
				(d.remaining == tightest.remaining && d.reset.Before(tightest.reset)) {
				snapshot := d
				tightest = &snapshot
			}
		}

		if tightest != nil {
			writeRateLimitHeaders(c, *tightest)
		}

		c.Next()
	}
}

func (rl *RateLimiter) evaluate(c *gin.Context, rule RateLimitRule, key string, now time.Time) (decision, error) {
	ctx := c.Request.Context()

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return decision{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return decision{}, err
	}

	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return decision{}, err
	}

	d := decision{
		allowed: true,
		limit:   rule.Limit,
		reset:   now.Add(rule.Window),
	}
	if hasAttempts {
		d.reset = oldest.Add(rule.Window)
	}
	d.retryAfter = max(d.reset.Sub(now), 0)

	if count >= rule.Limit {
		d.allowed = false
		return d, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return decision{}, err
	}

	d.remaining = max(rule.Limit-count-1, 0)
	return d, nil
}

func writeRateLimitHeaders(c *gin.Context, d decision) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(d.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))

	if !d.allowed {
		headers.Set("Retry-After", strconv.Itoa(retrySeconds(d)))
	}
}

func (rl *RateLimiter) reject(c *gin.Context, d decision) {
	seconds := retrySeconds(d)

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       ProblemTypeRateLimited,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     "Too many requests. Try again in " + strconv.Itoa(seconds) + " seconds.",
		Instance:   instance,
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}

func (rl *RateLimiter) unavailable(c *gin.Context) {
	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ProblemTypeRateLimitUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   "Request limits cannot be verified right now.",
		Instance: instance,
		TraceID:  GetTraceID(c),
	})
}

func retrySeconds(d decision) int {
	return max(int(math.Ceil(d.retryAfter.Seconds())), 0)
}
