// Command insightd runs the Insight API server.
// Usage: insightd [-config path]
package main

import (
	"flag"
	"os"

	"github.com/accessify/insight/internal/config"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger := logging.NewStdoutLogger("insightd")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		// An unreachable database is fatal: the server must not come up
		// half-working and fail every request later.
		logger.Error("starting server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer srv.Close()

	logger.Info("listening",
		logging.Field{Key: "addr", Value: cfg.ListenAddr},
		logging.Field{Key: "db", Value: cfg.DBPath})

	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		logger.Error("server exited", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
