package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/store"
)

var indexCmd = &cobra.Command{
	Use:   "index <fixture.yaml>",
	Short: "Load a fixture into the configured stores and vector index",
	Long: `Load categories, items, users, interactions and item embeddings from a YAML
fixture into the configured backends. Intended for the postgres and milvus
backends; the memory backends lose the data when the process exits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fx, err := store.LoadFixture(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Load(ctx, fx, cfg.Engine.Collection); err != nil {
			return err
		}
		logger.Info().
			Int("categories", len(fx.Categories)).
			Int("items", len(fx.Items)).
			Int("users", len(fx.Users)).
			Int("interactions", len(fx.Interactions)).
			Int("embeddings", len(fx.Embeddings)).
			Msg("fixture indexed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
