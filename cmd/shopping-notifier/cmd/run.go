package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopping-notifier/internal/engine"
)

func runCmd() *cobra.Command {
	var (
		batch int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every batch once and exit",
		Long: "Run processes the configured rules in-process, chaining batches\n" +
			"through a local queue until the last batch completes or one fails.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer a.Close()

			responses, err := a.driver.RunToCompletion(ctx, engine.Payload{
				CurrentBatch: batch,
				RunID:        runID,
			})
			for _, r := range responses {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", r.StatusCode, r.Body)
			}
			if err != nil {
				return fmt.Errorf("running batches: %w", err)
			}
			if n := len(responses); n > 0 && responses[n-1].StatusCode >= 300 {
				return fmt.Errorf("batch failed with status %d", responses[n-1].StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "batch index to start from")
	cmd.Flags().StringVar(&runID, "run-id", "", "run ID to resume (required to reuse a cached exclusion list)")

	return cmd
}
