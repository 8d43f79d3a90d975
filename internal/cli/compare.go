package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accessify/insight/internal/history"
)

var (
	currentFlag  string
	previousFlag string
)

var compareCmd = &cobra.Command{
	Use:   "compare <url>",
	Short: "Compare two scan days for one page",
	Long: `Compares category scores between two days of a page's history.
Without --current/--previous the two most recent days are compared.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&currentFlag, "current", "", "current date (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&previousFlag, "previous", "", "previous date (YYYY-MM-DD)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	entries, err := apiClient().History(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no scan history for %s", args[0])
	}

	rows := history.Compare(entries, currentFlag, previousFlag)
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), rows)
	}
	printComparison(cmd.OutOrStdout(), rows)
	return nil
}
