package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/digest/internal/control"
	"github.com/vietddude/digest/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest checkpoint: counters, queue and error breakdown",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cp, err := control.Inspect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if cp == nil {
		fmt.Println("No checkpoint found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "SEQUENCE\t%d\n", cp.Sequence)
	_, _ = fmt.Fprintf(w, "RUN\t%s\n", cp.RunID)
	_, _ = fmt.Fprintf(w, "SAVED\t%s\n", cp.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "PROCESSED\t%d\n", cp.Counters.Processed)
	_, _ = fmt.Fprintf(w, "SUCCEEDED\t%d\n", cp.Counters.Succeeded)
	_, _ = fmt.Fprintf(w, "FAILED\t%d\n", cp.Counters.Failed)
	_, _ = fmt.Fprintf(w, "RETRIED\t%d\n", cp.Counters.Retried)
	_, _ = fmt.Fprintf(w, "PENDING\t%d\n", len(cp.Pending)+len(cp.InFlight))
	_ = w.Flush()

	errorsByCategory := make(map[domain.ErrorCategory]int)
	for _, r := range cp.Results {
		if !r.Success {
			errorsByCategory[r.ErrorCategory]++
		}
	}
	if len(errorsByCategory) == 0 {
		return nil
	}

	categories := make([]domain.ErrorCategory, 0, len(errorsByCategory))
	for c := range errorsByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return errorsByCategory[categories[i]] > errorsByCategory[categories[j]]
	})

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tFAILED")
	for _, c := range categories {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c, errorsByCategory[c])
	}
	return w.Flush()
}
