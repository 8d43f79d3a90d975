package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accessify/insight/internal/model"
)

var (
	axeFlag        bool
	lighthouseFlag bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Run a combined accessibility and performance analysis",
	Long: `Runs both scanners against one page. A single failing scanner does
not sink the run; whatever succeeded is persisted and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&axeFlag, "axe", true, "run the accessibility scanner")
	analyzeCmd.Flags().BoolVar(&lighthouseFlag, "lighthouse", true, "run the performance audit")
	analyzeCmd.Flags().BoolVar(&enhancedFlag, "enhanced", false, "map violations to WCAG criteria and score their priority")
	analyzeCmd.Flags().StringSliceVar(&rulesFlag, "rules", nil, "restrict the scan to specific rule ids")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	var opts *model.ScanOptions
	if len(rulesFlag) > 0 {
		opts = &model.ScanOptions{Rules: rulesFlag}
	}

	rec, err := apiClient().RunAnalysis(ctx, args[0], axeFlag, lighthouseFlag, enhancedFlag, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	printRecord(cmd.OutOrStdout(), rec)
	return nil
}
