package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsSubmitted tracks items accepted into the queue by bucket
	ItemsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_items_submitted_total",
			Help: "Total number of work items accepted into the queue",
		},
		[]string{"bucket"},
	)

	// ItemsDuplicate tracks submissions ignored because the ID was known
	ItemsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_items_duplicate_total",
			Help: "Total number of submissions ignored as duplicates",
		},
	)

	// ItemsCompleted tracks terminal outcomes per provider
	ItemsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_items_completed_total",
			Help: "Total number of items that reached a terminal state",
		},
		[]string{"provider", "outcome"},
	)

	// ItemsRetried tracks requeues per error category
	ItemsRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_items_retried_total",
			Help: "Total number of items requeued after a failure",
		},
		[]string{"category"},
	)

	// ExecutionErrors tracks classified failures per provider
	ExecutionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_execution_errors_total",
			Help: "Total number of failed executions",
		},
		[]string{"provider", "category"},
	)

	// ExecutionLatency tracks executor call duration
	ExecutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_execution_latency_seconds",
			Help:    "Executor call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// RateLimitWait tracks time spent blocked on provider quotas
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_ratelimit_wait_seconds",
			Help:    "Time spent waiting for a provider permit",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
		[]string{"provider"},
	)

	// QueueDepth tracks pending items
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_queue_depth",
			Help: "Number of pending work items",
		},
	)

	// WorkersBusy tracks in-flight executions
	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_workers_busy",
			Help: "Number of workers currently executing an item",
		},
	)

	// CheckpointSaves tracks checkpoint writes by result
	CheckpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_checkpoint_saves_total",
			Help: "Total number of checkpoint save attempts",
		},
		[]string{"result"},
	)

	// CheckpointSequence tracks the last persisted checkpoint sequence
	CheckpointSequence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_checkpoint_sequence",
			Help: "Sequence number of the last persisted checkpoint",
		},
	)

	// DBConnectionPoolUsage tracks checkpoint database pool utilisation
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_db_connection_pool_usage_percent",
			Help: "Open connections as a percentage of the pool size",
		},
	)
)
