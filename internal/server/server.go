// Package server is the HTTP + WebSocket API surface for Insight.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/accessify/insight/docs/swagger"
	"github.com/accessify/insight/internal/config"
	"github.com/accessify/insight/internal/engine"
	"github.com/accessify/insight/internal/executor"
	"github.com/accessify/insight/internal/history"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/orchestrator"
	"github.com/accessify/insight/internal/store"
	"github.com/accessify/insight/internal/urlutil"
)

// historyLimit caps how many raw records feed one reconciled history view.
const historyLimit = 10

// AnalysisRunner runs scans and persists their records.
type AnalysisRunner interface {
	RunAnalysis(ctx context.Context, url string, opts orchestrator.Options) (*model.TestRecord, []orchestrator.Outcome, error)
}

// RecordStore is the read surface the handlers need.
type RecordStore interface {
	GetByID(ctx context.Context, id string) (*model.TestRecord, error)
	FindByURL(ctx context.Context, url string, limit int) ([]*model.TestRecord, error)
	FindRecent(ctx context.Context, limit int) ([]*model.TestRecord, error)
}

// Server routes scan and history requests to the orchestrator and store.
type Server struct {
	cfg      Config
	runner   AnalysisRunner
	records  RecordStore
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	db       *store.SQLiteStore
}

// NewServer creates a Server, building the record store and orchestrator
// from cfg.AppConfig unless overrides are injected. A store that cannot be
// opened is a startup failure, not something to limp along without.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = config.Default()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:     cfg,
		runner:  cfg.Runner,
		records: cfg.Records,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	if s.records == nil || s.runner == nil {
		db, err := store.Open(cfg.AppConfig.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening record store: %w", err)
		}
		s.db = db
		if s.records == nil {
			s.records = db
		}
		if s.runner == nil {
			runner, err := buildOrchestrator(cfg.AppConfig, db, logger)
			if err != nil {
				db.Close()
				return nil, err
			}
			s.runner = runner
		}
	}

	s.router = chi.NewRouter()
	s.routes()
	return s, nil
}

// buildOrchestrator assembles the production executor set: axe-core in a
// headless browser when a bundle is configured, the built-in heuristic
// rules otherwise, and lighthouse for audits.
func buildOrchestrator(cfg *config.Config, st orchestrator.Store, logger logging.Logger) (*orchestrator.Orchestrator, error) {
	sc := cfg.Scanner

	var rules engine.RuleEngine
	if sc.AxeScriptPath != "" {
		axe, err := engine.NewAxeEngine(sc.AxeScriptPath, sc.NavigationTimeout, sc.Headless, logger)
		if err != nil {
			return nil, fmt.Errorf("loading axe engine: %w", err)
		}
		rules = axe
	} else {
		rules = engine.NewHeuristicEngine(sc.NavigationTimeout, sc.Headless, logger)
	}

	audit := engine.NewLighthouseEngine(sc.LighthouseBin, logger)

	a11y := executor.NewAccessibilityExecutor(rules, false, logger)
	enhanced := executor.NewAccessibilityExecutor(rules, true, logger)
	perf := executor.NewPerformanceExecutor(audit, logger)

	return orchestrator.New(a11y, enhanced, perf, st, logger), nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/test", func(r chi.Router) {
		// CORS preflight
		r.Options("/", s.optionsHandler("POST"))
		r.Options("/lighthouse", s.optionsHandler("POST"))
		r.Options("/analyze", s.optionsHandler("POST"))
		r.Options("/history", s.optionsHandler("GET"))
		r.Options("/history/{url}", s.optionsHandler("GET"))
		r.Options("/{id}", s.optionsHandler("GET"))

		r.Post("/", s.handleRunAccessibility)
		r.Post("/lighthouse", s.handleRunLighthouse)
		r.Post("/analyze", s.handleRunAnalyze)
		r.Get("/analyze/ws", s.handleAnalyzeWS)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{url}", s.handleHistoryForURL)
		r.Get("/{id}", s.handleGetRecord)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the record store if the server owns one.
func (s *Server) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // scans outlive any fixed write deadline
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// isValidationErr separates bad client input from executor and store
// failures so the handlers can answer 400 instead of 500.
func isValidationErr(err error) bool {
	for _, sentinel := range []error{
		urlutil.ErrEmptyURL,
		urlutil.ErrMissingHost,
		urlutil.ErrBadScheme,
		urlutil.ErrNotAbsoluteURL,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var uerr *url.Error
	return errors.As(err, &uerr)
}

// --- HTTP handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) runScan(w http.ResponseWriter, r *http.Request, opts orchestrator.Options) {
	var body RunTestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding scan request", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	opts.Scan = body.Options

	rec, _, err := s.runner.RunAnalysis(r.Context(), body.URL, opts)
	if err != nil {
		if isValidationErr(err) {
			s.logger.Warn("rejecting scan target", logging.Field{Key: "url", Value: body.URL}, logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("running scan", logging.Field{Key: "url", Value: body.URL}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("scan persisted", logging.Field{Key: "id", Value: rec.ID}, logging.Field{Key: "kind", Value: rec.Kind})
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRunAccessibility(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, orchestrator.Options{
		Accessibility: true,
		Enhanced:      boolQuery(r, "enhanced", false),
	})
}

func (s *Server) handleRunLighthouse(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, orchestrator.Options{Performance: true})
}

func (s *Server) handleRunAnalyze(w http.ResponseWriter, r *http.Request) {
	opts := orchestrator.Options{
		Accessibility: boolQuery(r, "axe", true),
		Performance:   boolQuery(r, "lighthouse", true),
		Enhanced:      boolQuery(r, "enhanced", false),
	}
	if !opts.Accessibility && !opts.Performance {
		writeError(w, http.StatusBadRequest, "at least one of axe or lighthouse must be enabled")
		return
	}
	s.runScan(w, r, opts)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "test record not found")
			return
		}
		s.logger.Warn("getting record", logging.Field{Key: "id", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.FindRecent(r.Context(), historyLimit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history.Reconcile(records))
}

func (s *Server) handleHistoryForURL(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "url")
	target, err := url.PathUnescape(raw)
	if err != nil {
		target = raw
	}

	records, err := s.records.FindByURL(r.Context(), target, historyLimit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "url", Value: target}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history.Reconcile(records))
}

// --- WebSockets ---

// wsEvent is one frame of the analyze stream: a status update per settled
// executor, then the final record.
type wsEvent struct {
	Type   string            `json:"type"`
	Kind   model.Kind        `json:"kind,omitempty"`
	Status string            `json:"status,omitempty"`
	Error  string            `json:"error,omitempty"`
	Record *model.TestRecord `json:"record,omitempty"`
}

func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	opts := orchestrator.Options{
		Accessibility: boolQuery(r, "axe", true),
		Performance:   boolQuery(r, "lighthouse", true),
		Enhanced:      boolQuery(r, "enhanced", false),
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(wsEvent{Type: "started"})

	rec, outcomes, err := s.runner.RunAnalysis(r.Context(), target, opts)
	for _, oc := range outcomes {
		ev := wsEvent{Type: "executor", Kind: oc.Kind, Status: "ok"}
		if oc.Err != nil {
			ev.Status = "failed"
			ev.Error = oc.Err.Error()
		}
		if werr := conn.WriteJSON(ev); werr != nil {
			return
		}
	}
	if err != nil {
		s.logger.Warn("running analysis", logging.Field{Key: "url", Value: target}, logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(wsEvent{Type: "error", Error: err.Error()})
		return
	}
	_ = conn.WriteJSON(wsEvent{Type: "record", Record: rec})
}

func boolQuery(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
