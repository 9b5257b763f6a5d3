package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the server's search API quota",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := newClient().GetQuota(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTabWriter(cmd.OutOrStdout())
			tw.writef("Daily limit:\t%d\n", q.DailyLimit)
			tw.writef("Used:\t%d\n", q.DailyUsed)
			tw.writef("Remaining:\t%d\n", q.Remaining)
			if q.Exhausted {
				tw.writef("Status:\t%s\n", "exhausted, searches fail until reset")
			}
			tw.writef("Resets at:\t%s\n", q.ResetAt.Local().Format(time.RFC3339))
			return tw.finish()
		},
	}
}
