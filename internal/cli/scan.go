package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accessify/insight/internal/model"
)

var (
	enhancedFlag bool
	rulesFlag    []string
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Run an accessibility scan",
	Long: `Scans one page for accessibility violations and prints the rule
results. With --enhanced, violations carry WCAG criteria references and a
priority score.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&enhancedFlag, "enhanced", false, "map violations to WCAG criteria and score their priority")
	scanCmd.Flags().StringSliceVar(&rulesFlag, "rules", nil, "restrict the scan to specific rule ids")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	var opts *model.ScanOptions
	if len(rulesFlag) > 0 {
		opts = &model.ScanOptions{Rules: rulesFlag}
	}

	rec, err := apiClient().RunTest(ctx, args[0], opts, enhancedFlag)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	printRecord(cmd.OutOrStdout(), rec)
	return nil
}
