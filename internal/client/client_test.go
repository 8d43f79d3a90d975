package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessify/insight/internal/model"
)

func fastClient(url string) *Client {
	return New(url, WithBackoff(time.Millisecond))
}

func TestRunTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/test", r.URL.Path)

		var req model.ScanRequest
		require.NoError(t, readJSON(r, &req))
		assert.Equal(t, "https://example.com", req.URL)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"r1","url":"https://example.com","kind":"accessibility","summary":{"score":90}}`))
	}))
	defer srv.Close()

	rec, err := fastClient(srv.URL).RunTest(context.Background(), "https://example.com", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, model.KindAccessibility, rec.Kind)
	require.NotNil(t, rec.AccessibilitySummary)
	assert.Equal(t, 90, rec.AccessibilitySummary.Score)
}

func TestRunAnalysisQueryFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/test/analyze", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("axe"))
		assert.Equal(t, "false", r.URL.Query().Get("lighthouse"))
		assert.Equal(t, "true", r.URL.Query().Get("enhanced"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"r1","url":"https://example.com","kind":"accessibility"}`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).RunAnalysis(context.Background(), "https://example.com", true, false, true, nil)
	require.NoError(t, err)
}

func TestRetriesServerFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"lighthouse exited 1"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"r1","url":"https://example.com","kind":"performance"}`))
	}))
	defer srv.Close()

	rec, err := fastClient(srv.URL).RunLighthouse(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, 3, calls, "two retries after the initial attempt")
}

func TestRetriesAreBounded(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"still broken"}`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).RunLighthouse(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "still broken", apiErr.Message)
}

func TestValidationFailuresNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"url scheme must be http or https"}`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).RunTest(context.Background(), "ftp://example.com", nil, false)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx must not be retried")

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestGetRecordNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"test record not found"}`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).GetRecord(context.Background(), "missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "test record not found", apiErr.Message)
}

func TestHistoryFilterPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/test/history/example.com", r.URL.Path)
		w.Write([]byte(`[{"id":"a","url":"https://example.com","date":"2024-03-15","accessibilityScore":85,"issues":2}]`))
	}))
	defer srv.Close()

	entries, err := fastClient(srv.URL).History(context.Background(), "example.com")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 85, entries[0].AccessibilityScore)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
