package server

import (
	"github.com/accessify/insight/internal/config"
	"github.com/accessify/insight/internal/logging"
)

// Config wires the HTTP server.
type Config struct {
	// ListenAddr is the HTTP listen address. Empty falls back to the app
	// config's address.
	ListenAddr string

	AppConfig *config.Config
	Logger    logging.Logger

	// Runner and Records override the orchestrator and record store built
	// from AppConfig. Tests inject stubs here; production leaves both nil.
	Runner  AnalysisRunner
	Records RecordStore
}
