package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/digest/internal/control"
	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/extract"
	"github.com/vietddude/digest/internal/ingest"
)

var (
	inputPath  string
	resultsOut string
	serve      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process bookmarks until the queue drains or the process is interrupted",
	RunE:  runDigest,
}

func init() {
	runCmd.Flags().StringVar(&inputPath, "input", "", "bookmark export (JSON array or JSON lines)")
	runCmd.Flags().StringVar(&resultsOut, "results", "", "append results as JSON lines to this file")
	runCmd.Flags().BoolVar(&serve, "serve", false, "expose /health, /status and /metrics while running")
	rootCmd.AddCommand(runCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if resultsOut != "" {
		cfg.Output.ResultsPath = resultsOut
	}
	if serve {
		cfg.Server.Enabled = true
	}

	var items []*domain.WorkItem
	if inputPath != "" {
		batch, err := ingest.LoadFile(inputPath)
		if err != nil {
			slog.Error("Failed to load bookmarks", "error", err)
			return err
		}
		for _, r := range batch.Rejected {
			slog.Warn("Skipped bookmark", "line", r.Line, "reason", r.Reason)
		}
		items = batch.Items
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exec := extract.NewHTTPExecutor(nil, cfg.Extract)
	app, err := control.NewDigest(ctx, cfg, exec)
	if err != nil {
		slog.Error("Failed to initialize digest", "error", err)
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("Error during shutdown", "error", err)
		}
	}()

	slog.Info("Digest started", "config", cfgPath, "input", inputPath, "items", len(items))
	if err := app.Run(ctx, items); err != nil {
		slog.Error("Run failed", "error", err)
		return err
	}

	c := app.Orchestrator().Stats().Counters
	slog.Info("Digest finished",
		"processed", c.Processed,
		"succeeded", c.Succeeded,
		"failed", c.Failed,
		"retried", c.Retried,
	)
	return nil
}
