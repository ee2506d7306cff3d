package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/scheduling/orchestrator"
)

// =============================================================================
// Mocks
// =============================================================================

type stubSource struct {
	stats orchestrator.Stats
	calls int
}

func (s *stubSource) Stats() orchestrator.Stats {
	s.calls++
	return s.stats
}

func statsWith(processed, failed int) orchestrator.Stats {
	return orchestrator.Stats{
		Counters: domain.Counters{Processed: processed, Succeeded: processed - failed, Failed: failed},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestCheckHealth_Status(t *testing.T) {
	tests := []struct {
		name     string
		stats    orchestrator.Stats
		checkers map[string]Checker
		want     SystemStatus
	}{
		{
			name:  "idle",
			stats: statsWith(0, 0),
			want:  StatusHealthy,
		},
		{
			name:  "few failures below sample size",
			stats: statsWith(5, 5),
			want:  StatusHealthy,
		},
		{
			name:  "degraded error rate",
			stats: statsWith(100, 30),
			want:  StatusDegraded,
		},
		{
			name:  "critical error rate",
			stats: statsWith(100, 80),
			want:  StatusCritical,
		},
		{
			name:  "dependency down",
			stats: statsWith(100, 0),
			checkers: map[string]Checker{
				"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
			},
			want: StatusCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(&stubSource{stats: tt.stats}, tt.checkers, DefaultThresholds, 0)
			report := m.CheckHealth(context.Background())
			if report.SystemStatus != tt.want {
				t.Errorf("status = %s, want %s", report.SystemStatus, tt.want)
			}
		})
	}
}

func TestCheckHealth_CheckpointErrorDegrades(t *testing.T) {
	stats := statsWith(1, 0)
	stats.LastCheckpoint.LastError = "disk full"
	m := NewMonitor(&stubSource{stats: stats}, nil, DefaultThresholds, 0)

	if got := m.CheckHealth(context.Background()).SystemStatus; got != StatusDegraded {
		t.Errorf("status = %s, want degraded", got)
	}
}

func TestCheckHealth_Cached(t *testing.T) {
	src := &stubSource{stats: statsWith(1, 0)}
	m := NewMonitor(src, nil, DefaultThresholds, time.Minute)

	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	if src.calls != 1 {
		t.Errorf("stats read %d times, want 1", src.calls)
	}
}

func TestServer_Endpoints(t *testing.T) {
	src := &stubSource{stats: statsWith(100, 90)}
	srv := NewServer(NewMonitor(src, nil, DefaultThresholds, 0), 0)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable || body["status"] != string(StatusCritical) {
		t.Errorf("/health: code=%d body=%v", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	var stats orchestrator.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if stats.Counters.Failed != 90 {
		t.Errorf("/status counters = %+v", stats.Counters)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics code = %d", resp.StatusCode)
	}
}
