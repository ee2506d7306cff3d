package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/digest/internal/core/domain"
)

var validate = validator.New()

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${ENV} references, applies defaults and
// validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for category := range cfg.RetryLimits {
		if !domain.ErrorCategory(category).Valid() {
			return nil, fmt.Errorf("invalid config: unknown error category %q in retry_limits", category)
		}
	}
	for _, w := range RetryLimitWarnings(cfg.RetryLimits) {
		slog.Warn(w)
	}
	return &cfg, nil
}

// RetryLimitWarnings lists overrides that allow retrying errors which can
// never succeed on a retry (paywall, forbidden, not found).
func RetryLimitWarnings(limits map[string]int) []string {
	var warnings []string
	for category, limit := range limits {
		if domain.ErrorCategory(category).IsPermanent() && limit > 1 {
			warnings = append(warnings, fmt.Sprintf("retry_limits.%s = %d retries a permanent error", category, limit))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	var cfg AppConfig
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills zero values.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	s := &cfg.Scheduler
	if s.MaxWorkers == 0 {
		s.MaxWorkers = 4
	}
	if s.TaskTimeout == 0 {
		s.TaskTimeout = 60 * time.Second
	}
	if s.ShutdownGrace == 0 {
		s.ShutdownGrace = 10 * time.Second
	}
	if s.CheckpointEvery == 0 {
		s.CheckpointEvery = 10
	}
	if s.CheckpointInterval == 0 {
		s.CheckpointInterval = 30 * time.Second
	}
	if s.BackoffInitial == 0 {
		s.BackoffInitial = 2 * time.Second
	}
	if s.BackoffMax == 0 {
		s.BackoffMax = 60 * time.Second
	}
	if s.BackoffMultiple == 0 {
		s.BackoffMultiple = 2
	}

	if cfg.Checkpoint.Backend == "" {
		cfg.Checkpoint.Backend = BackendFile
	}
	if cfg.Checkpoint.Path == "" && cfg.Checkpoint.Backend == BackendFile {
		cfg.Checkpoint.Path = "digest-checkpoint.json"
	}
	if cfg.Checkpoint.KeepGenerations == 0 {
		cfg.Checkpoint.KeepGenerations = 3
	}
	if cfg.Checkpoint.LeaseTTL == 0 {
		cfg.Checkpoint.LeaseTTL = 30 * time.Second
	}

	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = "web"
	}
	if cfg.Output.BatchSize == 0 {
		cfg.Output.BatchSize = 1
	}
}
