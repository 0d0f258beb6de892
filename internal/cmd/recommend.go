package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/engine"
)

var (
	recommendUser    int64
	recommendLimit   int
	recommendFilters string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Run a single recommendation and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Int64VarP(&recommendUser, "user", "u", 0, "User ID (0 = anonymous)")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", -1, "Number of results (negative = configured default)")
	recommendCmd.Flags().StringVarP(&recommendFilters, "filters", "f", "", `Filters as JSON, e.g. '{"max_price": 1000}'`)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := loadConfiguredFixture(ctx, a); err != nil {
		return err
	}

	req := engine.Request{Query: args[0], Limit: recommendLimit}
	if recommendUser > 0 {
		req.UserID = &recommendUser
	}
	if recommendFilters != "" {
		if err := json.Unmarshal([]byte(recommendFilters), &req.Filters); err != nil {
			return fmt.Errorf("invalid --filters: %w", err)
		}
	}

	res, err := a.engine.Recommend(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
