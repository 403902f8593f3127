package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/whatsapp"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded results for a player",
	Long: `History prints the results recorded in the configured history database,
newest first.

Example:
  wealthsim history -u wealthsim -n 10`,
	RunE: runHistory,
}

var (
	historyUser  string
	historyLimit int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "wealthsim", "player id")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of results (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	store, err := history.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	results, err := store.List(ctx, historyUser, historyLimit)
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		warn.Fprintf(out, "No results recorded for %s\n", historyUser)
		return nil
	}

	accent.Fprintf(out, "== %s: %d games ==\n", historyUser, len(results))
	for _, r := range results {
		outcome := danger.Sprint("lost")
		if r.Won {
			outcome = success.Sprint("won ")
		}
		neutral.Fprintf(out, "%s  %-6s %s  %14s  vs AI %14s\n",
			r.FinishedAt.Format("2006-01-02 15:04"), r.Difficulty, outcome,
			whatsapp.FormatRupees(r.FinalNetWorth), whatsapp.FormatRupees(r.AINetWorth))
	}
	return nil
}
