package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopping-notifier/internal/engine"
)

func invokeCmd() *cobra.Command {
	var (
		batch int
		runID string
		async bool
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke a batch on a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()
			p := engine.Payload{CurrentBatch: batch, RunID: runID}

			if async {
				if err := c.InvokeAsync(cmd.Context(), p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "batch %d queued\n", batch)
				return nil
			}

			resp, err := c.Invoke(cmd.Context(), p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.StatusCode >= 300 {
				return fmt.Errorf("batch %d failed with status %d", batch, resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "batch index")
	cmd.Flags().StringVar(&runID, "run-id", "", "run ID of the chain the batch belongs to")
	cmd.Flags().BoolVar(&async, "async", false, "queue the batch and return immediately")

	return cmd
}
