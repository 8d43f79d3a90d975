package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Run a performance audit",
	Long:  "Audits one page with lighthouse and prints category scores, timing metrics and the resource breakdown.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	rec, err := apiClient().RunLighthouse(ctx, args[0])
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	printRecord(cmd.OutOrStdout(), rec)
	return nil
}
