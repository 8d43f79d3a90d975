package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/orchestrator"
	"github.com/accessify/insight/internal/server"
	"github.com/accessify/insight/internal/store"
	"github.com/accessify/insight/internal/urlutil"
)

type stubRunner struct {
	lastURL  string
	lastOpts orchestrator.Options
	rec      *model.TestRecord
	err      error
}

func (s *stubRunner) RunAnalysis(_ context.Context, url string, opts orchestrator.Options) (*model.TestRecord, []orchestrator.Outcome, error) {
	s.lastURL = url
	s.lastOpts = opts
	if _, err := urlutil.ValidateScanTarget(url); err != nil {
		return nil, nil, err
	}
	return s.rec, nil, s.err
}

type stubRecords struct {
	byID    map[string]*model.TestRecord
	records []*model.TestRecord
	err     error
}

func (s *stubRecords) GetByID(_ context.Context, id string) (*model.TestRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubRecords) FindByURL(_ context.Context, url string, limit int) ([]*model.TestRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*model.TestRecord
	for _, rec := range s.records {
		if urlutil.MatchesFilter(rec.URL, url) && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubRecords) FindRecent(_ context.Context, limit int) ([]*model.TestRecord, error) {
	return s.FindByURL(context.Background(), "", limit)
}

func sampleRecord(id string) *model.TestRecord {
	return &model.TestRecord{
		ID:                   id,
		URL:                  "https://example.com",
		CreatedAt:            time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Kind:                 model.KindAccessibility,
		AccessibilitySummary: &model.ScanSummary{Passes: 27, Violations: 3, Score: 90},
	}
}

func newTestServer(t *testing.T, runner *stubRunner, records *stubRecords) *server.Server {
	t.Helper()

	if runner == nil {
		runner = &stubRunner{rec: sampleRecord("r1")}
	}
	if records == nil {
		records = &stubRecords{byID: map[string]*model.TestRecord{}}
	}

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		Logger:     logging.Discard{},
		Runner:     runner,
		Records:    records,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil, nil)

	rec := doJSON(t, s, "GET", "/api/test/history", "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil, nil)

	rec := doJSON(t, s, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_RunAccessibility(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{rec: sampleRecord("r1")}
	s := newTestServer(t, runner, nil)

	rec := doJSON(t, s, "POST", "/api/test", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body model.TestRecord
	decodeJSON(t, rec, &body)
	if body.ID != "r1" {
		t.Errorf("expected persisted record in response, got %+v", body)
	}

	if !runner.lastOpts.Accessibility || runner.lastOpts.Performance {
		t.Errorf("expected accessibility-only options, got %+v", runner.lastOpts)
	}
	if runner.lastOpts.Enhanced {
		t.Error("enhanced should default to false")
	}
}

func TestServer_RunAccessibility_EnhancedQuery(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{rec: sampleRecord("r1")}
	s := newTestServer(t, runner, nil)

	doJSON(t, s, "POST", "/api/test?enhanced=true", `{"url":"https://example.com"}`)
	if !runner.lastOpts.Enhanced {
		t.Error("expected enhanced option set from query")
	}
}

func TestServer_RunAccessibility_InvalidURL(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &stubRunner{}, nil)

	rec := doJSON(t, s, "POST", "/api/test", `{"url":"ftp://example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_RunAccessibility_InvalidJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil, nil)

	rec := doJSON(t, s, "POST", "/api/test", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServer_RunLighthouse(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{rec: sampleRecord("r1")}
	s := newTestServer(t, runner, nil)

	rec := doJSON(t, s, "POST", "/api/test/lighthouse", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !runner.lastOpts.Performance || runner.lastOpts.Accessibility {
		t.Errorf("expected performance-only options, got %+v", runner.lastOpts)
	}
}

func TestServer_Analyze_Defaults(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{rec: sampleRecord("r1")}
	s := newTestServer(t, runner, nil)

	rec := doJSON(t, s, "POST", "/api/test/analyze", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !runner.lastOpts.Accessibility || !runner.lastOpts.Performance {
		t.Errorf("analyze should default to both executors, got %+v", runner.lastOpts)
	}
}

func TestServer_Analyze_FlagsOff(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{rec: sampleRecord("r1")}
	s := newTestServer(t, runner, nil)

	rec := doJSON(t, s, "POST", "/api/test/analyze?lighthouse=false", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if runner.lastOpts.Performance {
		t.Error("lighthouse=false should disable the performance executor")
	}

	rec = doJSON(t, s, "POST", "/api/test/analyze?axe=false&lighthouse=false", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when every scanner is disabled, got %d", rec.Code)
	}
}

func TestServer_Analyze_ExecutorFailure(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{err: errors.New("all executors failed: browser crashed; lighthouse exited 1")}
	s := newTestServer(t, runner, nil)

	rec := doJSON(t, s, "POST", "/api/test/analyze", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body server.ErrorResponse
	decodeJSON(t, rec, &body)
	if !strings.Contains(body.Error, "browser crashed") {
		t.Errorf("error body should carry the combined failure, got %q", body.Error)
	}
}

func TestServer_GetRecord(t *testing.T) {
	t.Parallel()
	records := &stubRecords{byID: map[string]*model.TestRecord{"r1": sampleRecord("r1")}}
	s := newTestServer(t, nil, records)

	rec := doJSON(t, s, "GET", "/api/test/r1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, s, "GET", "/api/test/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServer_History_Reconciled(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	low := sampleRecord("a")
	low.CreatedAt = day.Add(9 * time.Hour)
	low.AccessibilitySummary.Score = 70
	high := sampleRecord("b")
	high.CreatedAt = day.Add(18 * time.Hour)
	high.AccessibilitySummary.Score = 85

	records := &stubRecords{records: []*model.TestRecord{high, low}}
	s := newTestServer(t, nil, records)

	rec := doJSON(t, s, "GET", "/api/test/history/example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []map[string]any
	decodeJSON(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected same-day scans merged into one entry, got %d", len(entries))
	}
	if score := entries[0]["accessibilityScore"].(float64); score != 85 {
		t.Errorf("reconciled score = %v, want max 85", score)
	}
}

func TestServer_History_Unfiltered(t *testing.T) {
	t.Parallel()
	records := &stubRecords{records: []*model.TestRecord{sampleRecord("a")}}
	s := newTestServer(t, nil, records)

	rec := doJSON(t, s, "GET", "/api/test/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []map[string]any
	decodeJSON(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestServer_History_StoreFailure(t *testing.T) {
	t.Parallel()
	records := &stubRecords{err: errors.New("database locked")}
	s := newTestServer(t, nil, records)

	rec := doJSON(t, s, "GET", "/api/test/history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
