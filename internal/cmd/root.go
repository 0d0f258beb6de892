// Package cmd 是 hybridrec 命令行入口。
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/pkg/logging"
)

var (
	configPath string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hybridrec",
	Short: "Hybrid recommendation service",
	Long: `hybridrec recommends catalog items for a free-text query by fusing semantic,
collaborative and content signals, and explains every result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger = logging.New(cfg.Log)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file (default: $HYBRIDREC_CONFIG or ./hybridrec.yaml)")
}
