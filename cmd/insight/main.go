// Command insight is the terminal client for an Insight server.
package main

import (
	"os"

	"github.com/accessify/insight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
