package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopping-notifier/internal/engine"
	"github.com/donaldgifford/shopping-notifier/internal/rules"
	"github.com/donaldgifford/shopping-notifier/internal/store"
)

func rulesCmd() *cobra.Command {
	var (
		asJSON bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules this deployment processes",
		Long: "Rules loads and validates the configuration CSV from the bucket\n" +
			"and prints the rows owned by the configured partition.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			blobs, err := store.NewFSBlobStore(cfg.Storage.Bucket)
			if err != nil {
				return fmt.Errorf("opening bucket: %w", err)
			}

			loaded, err := rules.NewSource(blobs, cfg.Storage.ConfigKey).Load(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				loaded = rules.Partition(loaded, cfg.Batch.Partition)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(loaded)
			}

			if err := printRuleTable(cmd.OutOrStdout(), loaded); err != nil {
				return err
			}
			c := engine.Cursor{BatchSize: cfg.Batch.Size, TotalRows: len(loaded)}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d rules in %d batches of %d (partition %s)\n",
				len(loaded), c.TotalBatches(), cfg.Batch.Size, cfg.Batch.Partition)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rules as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "ignore the partition and list every row")

	return cmd
}
