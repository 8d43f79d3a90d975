package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [url]",
	Short: "Show reconciled scan history",
	Long: `Prints the scan history, one row per page per day. With a URL
argument only matching pages are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	filter := ""
	if len(args) == 1 {
		filter = args[0]
	}

	entries, err := apiClient().History(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	printHistory(cmd.OutOrStdout(), entries)
	return nil
}
