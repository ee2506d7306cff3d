package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/digest/internal/scheduling/orchestrator"
)

// StatsSource is satisfied by *orchestrator.Orchestrator.
type StatsSource interface {
	Stats() orchestrator.Stats
}

// Checker probes one dependency, e.g. a database ping.
type Checker func(ctx context.Context) error

// Thresholds decide when the scheduler counts as degraded or critical.
type Thresholds struct {
	// Failed / processed ratio.
	DegradedErrorRate float64
	CriticalErrorRate float64
	// Runs with fewer processed items are never judged on error rate.
	MinProcessed int
	// Domains need this many attempts to be listed as problematic.
	MinDomainAttempts int
}

// DefaultThresholds provides sensible defaults.
var DefaultThresholds = Thresholds{
	DegradedErrorRate: 0.25,
	CriticalErrorRate: 0.75,
	MinProcessed:      20,
	MinDomainAttempts: 3,
}

// Monitor aggregates health status from the scheduler and its dependencies.
type Monitor struct {
	source     StatsSource
	checkers   map[string]Checker
	thresholds Thresholds
	cacheFor   time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor. Reports are cached for cacheFor
// so probes do not hammer the database.
func NewMonitor(source StatsSource, checkers map[string]Checker, thresholds Thresholds, cacheFor time.Duration) *Monitor {
	if checkers == nil {
		checkers = make(map[string]Checker)
	}
	return &Monitor{
		source:     source,
		checkers:   checkers,
		thresholds: thresholds,
		cacheFor:   cacheFor,
	}
}

// CheckHealth builds a report, or returns the cached one.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheFor {
		return *m.lastReport
	}

	stats := m.source.Stats()
	report := HealthReport{
		SystemStatus: StatusHealthy,
		CheckedAt:    time.Now().UTC(),
		Scheduler:    stats,
		Problematic:  stats.ProblematicDomains(m.thresholds.MinDomainAttempts),
	}

	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := m.checkers[name](ctx); err != nil {
			c.Status = StatusCritical
			c.Error = err.Error()
		}
		report.Components = append(report.Components, c)
		report.SystemStatus = worse(report.SystemStatus, c.Status)
	}

	if stats.LastCheckpoint.LastError != "" {
		report.SystemStatus = worse(report.SystemStatus, StatusDegraded)
	}

	if processed := stats.Counters.Processed; processed > 0 {
		report.ErrorRate = float64(stats.Counters.Failed) / float64(processed)
		if processed >= m.thresholds.MinProcessed {
			switch {
			case report.ErrorRate >= m.thresholds.CriticalErrorRate:
				report.SystemStatus = worse(report.SystemStatus, StatusCritical)
			case report.ErrorRate >= m.thresholds.DegradedErrorRate:
				report.SystemStatus = worse(report.SystemStatus, StatusDegraded)
			}
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
