package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/digest/internal/control"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete stored checkpoints so the next run starts from scratch",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := control.Reset(cmd.Context(), cfg); err != nil {
		return err
	}
	fmt.Printf("Removed checkpoints from %s backend\n", cfg.Checkpoint.Backend)
	return nil
}
