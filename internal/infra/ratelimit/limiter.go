package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrReleaseWithoutAcquire is returned by Release when no slot is held.
var ErrReleaseWithoutAcquire = errors.New("ratelimit: release without matching acquire")

// Config holds limiter configuration.
type Config struct {
	// Default applies to providers without an explicit quota.
	Default   Quota
	Providers []Quota
	// Now overrides the clock used for window accounting.
	Now func() time.Time
}

// Limiter tracks quotas for many providers. Each provider has its own lock so
// busy providers never contend with each other.
type Limiter struct {
	mu        sync.RWMutex
	providers map[string]*providerState
	defaults  Quota
	now       func() time.Time
	logger    *slog.Logger
}

type providerState struct {
	quota Quota
	sem   *semaphore.Weighted

	mu          sync.Mutex
	windowStart time.Time
	count       int
	inFlight    int
	total       int64
	throttled   int64
}

// NewLimiter creates a limiter from cfg.
func NewLimiter(cfg Config) *Limiter {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	l := &Limiter{
		providers: make(map[string]*providerState),
		defaults:  cfg.Default.normalize(),
		now:       now,
		logger:    slog.Default().With("component", "ratelimit"),
	}
	for _, q := range cfg.Providers {
		l.providers[q.Provider] = l.newState(q)
	}
	return l
}

func (l *Limiter) newState(q Quota) *providerState {
	q = q.normalize()
	st := &providerState{quota: q, windowStart: l.now()}
	if q.MaxConcurrent > 0 {
		st.sem = semaphore.NewWeighted(int64(q.MaxConcurrent))
	}
	return st
}

func (l *Limiter) state(provider string) *providerState {
	l.mu.RLock()
	st, ok := l.providers[provider]
	l.mu.RUnlock()
	if ok {
		return st
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.providers[provider]; ok {
		return st
	}
	q := l.defaults
	q.Provider = provider
	st = l.newState(q)
	l.providers[provider] = st
	return st
}

// Acquire blocks until provider admits one more call: first a concurrency
// slot, then a slot in the current window. It returns ctx.Err() if the
// context ends while waiting; in that case nothing is held.
func (l *Limiter) Acquire(ctx context.Context, provider string) (*Permit, error) {
	st := l.state(provider)

	if st.sem != nil {
		if err := st.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := l.waitWindow(ctx, st); err != nil {
		if st.sem != nil {
			st.sem.Release(1)
		}
		return nil, err
	}

	st.mu.Lock()
	st.inFlight++
	st.total++
	st.mu.Unlock()

	return &Permit{limiter: l, state: st}, nil
}

// waitWindow takes one slot in the rolling window, sleeping until the window
// resets when it is exhausted.
func (l *Limiter) waitWindow(ctx context.Context, st *providerState) error {
	if st.quota.RPM <= 0 {
		return nil
	}

	logged := false
	for {
		st.mu.Lock()
		now := l.now()
		if now.Sub(st.windowStart) >= st.quota.Window {
			st.windowStart = now
			st.count = 0
		}
		if st.count < st.quota.RPM {
			st.count++
			st.mu.Unlock()
			return nil
		}
		wait := st.windowStart.Add(st.quota.Window).Sub(now)
		if !logged {
			st.throttled++
		}
		st.mu.Unlock()

		if !logged {
			l.logger.Debug("Provider window exhausted, waiting",
				"provider", st.quota.Provider,
				"limit", st.quota.RPM,
				"wait", wait,
			)
			logged = true
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees one concurrency slot for provider. Prefer Permit.Release.
func (l *Limiter) Release(provider string) error {
	return l.release(l.state(provider))
}

func (l *Limiter) release(st *providerState) error {
	st.mu.Lock()
	if st.inFlight == 0 {
		st.mu.Unlock()
		return ErrReleaseWithoutAcquire
	}
	st.inFlight--
	st.mu.Unlock()

	if st.sem != nil {
		st.sem.Release(1)
	}
	return nil
}

// Usage returns a snapshot for provider.
func (l *Limiter) Usage(provider string) Usage {
	return l.state(provider).usage(l.now())
}

// AllUsage returns snapshots for every known provider, sorted by name.
func (l *Limiter) AllUsage() []Usage {
	l.mu.RLock()
	states := make([]*providerState, 0, len(l.providers))
	for _, st := range l.providers {
		states = append(states, st)
	}
	l.mu.RUnlock()

	now := l.now()
	out := make([]Usage, 0, len(states))
	for _, st := range states {
		out = append(out, st.usage(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

func (st *providerState) usage(now time.Time) Usage {
	st.mu.Lock()
	defer st.mu.Unlock()

	count := st.count
	resetAt := st.windowStart.Add(st.quota.Window)
	if !now.Before(resetAt) {
		count = 0
		resetAt = now.Add(st.quota.Window)
	}
	return Usage{
		Provider:      st.quota.Provider,
		WindowCount:   count,
		Limit:         st.quota.RPM,
		InFlight:      st.inFlight,
		MaxConcurrent: st.quota.MaxConcurrent,
		WindowResetAt: resetAt,
		TotalAcquired: st.total,
		Throttled:     st.throttled,
	}
}

// Permit is one successful acquisition. Release it exactly once, usually
// with defer; further calls are no-ops.
type Permit struct {
	limiter *Limiter
	state   *providerState
	once    sync.Once
}

// Provider returns the provider the permit was issued for.
func (p *Permit) Provider() string {
	return p.state.quota.Provider
}

// Release returns the concurrency slot.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		_ = p.limiter.release(p.state)
	})
}
