package config

import (
	"time"

	"github.com/vietddude/digest/internal/infra/extract"
	"github.com/vietddude/digest/internal/infra/ratelimit"
	redisclient "github.com/vietddude/digest/internal/infra/redis"
	"github.com/vietddude/digest/internal/infra/storage/postgres"
	"github.com/vietddude/digest/internal/scheduling/priority"
)

// Checkpoint backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Scheduler  SchedulerConfig    `yaml:"scheduler"`
	Checkpoint CheckpointConfig   `yaml:"checkpoint"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Extract    extract.Config     `yaml:"extract"`
	Output     OutputConfig       `yaml:"output"`

	// DefaultProvider charges items whose domain matches no route.
	DefaultProvider string            `yaml:"default_provider"`
	Providers       []ratelimit.Quota `yaml:"providers"        validate:"dive"`
	// Domains maps host patterns to provider names.
	Domains     map[string]string `yaml:"domains"`
	RetryLimits map[string]int    `yaml:"retry_limits"`
	Priority    priority.Weights  `yaml:"priority"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int  `yaml:"port"    validate:"gte=0,lte=65535"`
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

// SchedulerConfig holds worker pool and retry timing.
type SchedulerConfig struct {
	MaxWorkers         int           `yaml:"max_workers"         validate:"gte=1"`
	TaskTimeout        time.Duration `yaml:"task_timeout"        validate:"gte=0"`
	ShutdownGrace      time.Duration `yaml:"shutdown_grace"      validate:"gte=0"`
	CheckpointEvery    int           `yaml:"checkpoint_every"    validate:"gte=0"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval" validate:"gte=0"`
	BackoffInitial     time.Duration `yaml:"backoff_initial"     validate:"gte=0"`
	BackoffMax         time.Duration `yaml:"backoff_max"         validate:"gte=0"`
	BackoffMultiple    float64       `yaml:"backoff_multiple"    validate:"gte=0"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	Backend         string `yaml:"backend"          validate:"oneof=file memory postgres redis"`
	Path            string `yaml:"path"             validate:"required_if=Backend file"`
	KeepGenerations int    `yaml:"keep_generations" validate:"gte=0"`
	// LeaseTTL guards against two runs sharing one redis checkpoint.
	LeaseTTL time.Duration `yaml:"lease_ttl" validate:"gte=0"`
}

// OutputConfig controls where terminal results are written.
type OutputConfig struct {
	// ResultsPath appends each result as a JSON line; empty disables it.
	ResultsPath string `yaml:"results_path"`
	BatchSize   int    `yaml:"batch_size" validate:"gte=0"`
}
