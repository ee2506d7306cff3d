// Package health reports scheduler health over HTTP.
package health

import (
	"time"

	"github.com/vietddude/digest/internal/scheduling/orchestrator"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth is the result of one dependency check.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	CheckedAt    time.Time                  `json:"checked_at"`
	ErrorRate    float64                    `json:"error_rate"`
	Components   []ComponentHealth          `json:"components"`
	Problematic  []orchestrator.DomainStats `json:"problematic_domains,omitempty"`
	Scheduler    orchestrator.Stats         `json:"scheduler"`
}

var statusRank = map[SystemStatus]int{
	StatusHealthy:  0,
	StatusDegraded: 1,
	StatusCritical: 2,
}

func worse(a, b SystemStatus) SystemStatus {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}
