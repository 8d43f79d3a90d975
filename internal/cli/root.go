// Package cli implements the insight command line client.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/accessify/insight/internal/client"
)

var version = "dev"

var (
	serverFlag  string
	timeoutFlag time.Duration
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "Insight — accessibility and performance scanning client",
	Long: `Insight scans web pages for accessibility violations and performance
problems through an Insight server and renders the results in the
terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func apiClient() *client.Client {
	return client.New(serverFlag)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://localhost:3001", "insight server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 5*time.Minute, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(versionCmd)
}
