// Package cmd implements the CLI commands for shopping-notifier.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/shopping-notifier/internal/api/client"
	"github.com/donaldgifford/shopping-notifier/internal/config"
	"github.com/donaldgifford/shopping-notifier/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "shopping-notifier",
	Short: "Notify a chat room about new marketplace listings",
	Long: "shopping-notifier searches Yahoo! Shopping for every configured rule,\n" +
		"filters the results, and posts new matches to a Chatwork room. Rules\n" +
		"are processed in chained batches and every notified item is recorded\n" +
		"so it is never sent twice.",
	SilenceUsage: true,
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL for client commands")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))
	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))

	rootCmd.AddCommand(
		runCmd(),
		serveCmd(),
		invokeCmd(),
		quotaCmd(),
		migrateCmd(),
		rulesCmd(),
		versionCmd(),
	)
}

func initViper() {
	viper.SetEnvPrefix("SNOTIFY")
	viper.AutomaticEnv()
}

// loadConfig reads the config file named by --config or SNOTIFY_CONFIG and
// builds the process logger from it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logger.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}
