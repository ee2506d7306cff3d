package classify

import (
	"math"
	"time"

	"github.com/vietddude/digest/internal/core/domain"
)

// RetryLimits maps each category to the maximum number of attempts an item
// may accumulate while that category is its latest failure.
type RetryLimits map[domain.ErrorCategory]int

// DefaultRetryLimits returns the stock limit table.
func DefaultRetryLimits() RetryLimits {
	return RetryLimits{
		domain.ErrorPaywall:     0,
		domain.ErrorForbidden:   0,
		domain.ErrorNotFound:    0,
		domain.ErrorRequiresJS:  1,
		domain.ErrorRateLimited: 2,
		domain.ErrorTimeout:     3,
		domain.ErrorUnknown:     1,
	}
}

// With returns a copy of l with overrides applied.
func (l RetryLimits) With(overrides map[domain.ErrorCategory]int) RetryLimits {
	out := make(RetryLimits, len(l)+len(overrides))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Limit returns the limit for a category; unlisted categories use UNKNOWN's.
func (l RetryLimits) Limit(category domain.ErrorCategory) int {
	if n, ok := l[category]; ok {
		return n
	}
	return l[domain.ErrorUnknown]
}

// Decision is the outcome of a retry evaluation.
type Decision struct {
	Requeue bool
	Backoff time.Duration
	Limit   int
}

// BackoffConfig controls the delay before a requeued item becomes eligible.
type BackoffConfig struct {
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultBackoffConfig provides sensible defaults.
var DefaultBackoffConfig = BackoffConfig{
	InitialDelay:    2 * time.Second,
	MaxDelay:        60 * time.Second,
	BackoffMultiple: 2.0,
}

// RetryPolicy decides requeue versus terminal failure.
type RetryPolicy struct {
	limits  RetryLimits
	backoff BackoffConfig
}

// NewRetryPolicy creates a retry policy.
func NewRetryPolicy(limits RetryLimits, backoff BackoffConfig) *RetryPolicy {
	if limits == nil {
		limits = DefaultRetryLimits()
	}
	if backoff.BackoffMultiple <= 0 {
		backoff.BackoffMultiple = DefaultBackoffConfig.BackoffMultiple
	}
	return &RetryPolicy{limits: limits, backoff: backoff}
}

// Limits returns the policy's limit table.
func (p *RetryPolicy) Limits() RetryLimits {
	return p.limits
}

// Decide is a pure function of the failure category and the number of
// attempts made so far (including the one that just failed).
func (p *RetryPolicy) Decide(category domain.ErrorCategory, attempts int) Decision {
	limit := p.limits.Limit(category)
	if attempts >= limit {
		return Decision{Requeue: false, Limit: limit}
	}
	return Decision{
		Requeue: true,
		Backoff: p.Delay(attempts),
		Limit:   limit,
	}
}

// Delay returns the backoff after the given number of attempts:
// InitialDelay * multiple^(attempts-1), capped at MaxDelay.
func (p *RetryPolicy) Delay(attempts int) time.Duration {
	if attempts < 1 || p.backoff.InitialDelay <= 0 {
		return 0
	}
	delay := float64(p.backoff.InitialDelay) * math.Pow(p.backoff.BackoffMultiple, float64(attempts-1))
	if p.backoff.MaxDelay > 0 && delay > float64(p.backoff.MaxDelay) {
		delay = float64(p.backoff.MaxDelay)
	}
	return time.Duration(delay)
}
