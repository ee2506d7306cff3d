// Package ratelimit enforces per-provider request quotas.
//
// This package contains:
//   - Quota: requests-per-window and concurrency cap for one provider
//   - Limiter: rolling-window counter plus concurrency semaphore per provider
//   - Permit: scoped acquisition that must be released on every exit path
package ratelimit

import (
	"fmt"
	"time"
)

// DefaultWindow is the rolling window length when a quota does not set one.
const DefaultWindow = time.Minute

// Quota is the configured limit for one provider.
// A non-positive RPM or MaxConcurrent means that dimension is unlimited.
type Quota struct {
	Provider      string        `yaml:"name" validate:"required"`
	RPM           int           `yaml:"rpm" validate:"gte=0"`
	MaxConcurrent int           `yaml:"max_concurrent" validate:"gte=0"`
	Window        time.Duration `yaml:"window"`
}

func (q Quota) normalize() Quota {
	if q.Window <= 0 {
		q.Window = DefaultWindow
	}
	return q
}

func (q Quota) String() string {
	return fmt.Sprintf("%s(%d/%s, max %d concurrent)", q.Provider, q.RPM, q.Window, q.MaxConcurrent)
}

// Usage is a point-in-time snapshot of one provider's quota.
type Usage struct {
	Provider      string    `json:"provider"`
	WindowCount   int       `json:"window_count"`
	Limit         int       `json:"limit"`
	InFlight      int       `json:"in_flight"`
	MaxConcurrent int       `json:"max_concurrent"`
	WindowResetAt time.Time `json:"window_reset_at"`
	TotalAcquired int64     `json:"total_acquired"`
	Throttled     int64     `json:"throttled"`
}

// Remaining returns how many acquisitions the current window still admits,
// or -1 when the provider has no per-window limit.
func (u Usage) Remaining() int {
	if u.Limit <= 0 {
		return -1
	}
	if r := u.Limit - u.WindowCount; r > 0 {
		return r
	}
	return 0
}
