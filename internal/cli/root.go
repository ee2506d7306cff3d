package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/digest/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest bookmark processing scheduler",
	Long: `Digest works through a backlog of bookmarked posts, fetching and extracting
each linked page under per-provider rate limits. Progress is checkpointed so an
interrupted run resumes where it stopped.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env and the config file, then installs the logger.
// A missing default config file falls back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return nil, err
	}

	setupLogging(cfg.Logging, isDebug)
	return cfg, nil
}

// setupLogging installs the default logger: tint through stylelog for
// "text", slog's JSON handler on stderr for "json".
func setupLogging(cfg config.LoggingConfig, debug bool) {
	level := logLevel(cfg.Level, debug)

	if cfg.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

func logLevel(level string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
