package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/urlutil"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "insight.db"), logging.Discard{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(url string) *model.TestRecord {
	return &model.TestRecord{
		URL:  url,
		Kind: model.KindAccessibility,
		AccessibilitySummary: &model.ScanSummary{
			Violations: 3, Passes: 27, Score: 90,
		},
		AccessibilityDetail: &model.AccessibilityDetail{
			Violations: []model.IssueRecord{{RuleID: "image-alt", Impact: "critical", Description: "Images must have alternate text"}},
			Passes:     []model.IssueRecord{{RuleID: "document-title", Description: "Documents must have a title"}},
		},
		Engines: []model.EngineInfo{{Name: "axe-core", Version: "4.8.2"}},
	}
}

func TestCreateAssignsIdentityOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleRecord("https://example.com"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("id %q is not a uuid: %v", created.ID, err)
	}
	if created.CreatedAt.IsZero() || created.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC createdAt, got %v", created.CreatedAt)
	}

	if _, err := s.Create(ctx, created); err == nil {
		t.Fatal("expected error re-creating a record that already has an id")
	}
}

func TestCreateRejectsIncompleteRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, nil); err == nil {
		t.Fatal("expected error for nil record")
	}
	if _, err := s.Create(ctx, &model.TestRecord{Kind: model.KindAccessibility}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := s.Create(ctx, &model.TestRecord{URL: "https://example.com"}); err == nil {
		t.Fatal("expected error for missing kind")
	}
}

func TestGetByIDRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleRecord("https://example.com/page"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, created)
	}

	// Records are immutable, so repeated reads are identical.
	again, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID again: %v", err)
	}
	if !reflect.DeepEqual(again, got) {
		t.Fatal("repeated reads of the same id differ")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetByID(context.Background(), uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByURLSubstringMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	urls := []string{
		"https://example.com/page",
		"https://EXAMPLE.com/other",
		"https://unrelated.org",
	}
	for _, u := range urls {
		if _, err := s.Create(ctx, sampleRecord(u)); err != nil {
			t.Fatalf("Create %s: %v", u, err)
		}
	}

	got, err := s.FindByURL(ctx, "example.com", 10)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	for _, rec := range got {
		if !urlutil.MatchesFilter(rec.URL, "example.com") {
			t.Fatalf("unexpected match %s", rec.URL)
		}
	}

	all, err := s.FindRecent(ctx, 10)
	if err != nil {
		t.Fatalf("FindRecent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	limited, err := s.FindRecent(ctx, 2)
	if err != nil {
		t.Fatalf("FindRecent limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2 honored, got %d", len(limited))
	}
}

func TestFindByURLOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.Create(ctx, sampleRecord("https://example.com"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, rec.ID)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := s.FindByURL(ctx, "example.com", 10)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, rec := range got {
		if want := ids[len(ids)-1-i]; rec.ID != want {
			t.Fatalf("position %d: got %s, want %s", i, rec.ID, want)
		}
	}
}

func TestNormalizeLegacyDocument(t *testing.T) {
	created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	legacy := map[string]any{
		"url":       "https://example.com",
		"timestamp": created.Format(time.RFC3339),
		"summary": map[string]any{
			"violations": 3, "passes": 27, "incomplete": 1, "inapplicable": 12, "score": 90,
		},
		"results": map[string]any{
			"violations": []map[string]any{{"id": "image-alt", "impact": "critical", "description": "Images must have alternate text"}},
			"passes":     []map[string]any{},
		},
		"testEngine": map[string]any{"name": "axe-core", "version": "4.8.2"},
		"lighthouseResults": map[string]any{
			"scores": map[string]any{"performance": 72, "accessibility": 90, "seo": 100, "bestPractices": 83},
			"timing": map[string]any{
				"firstContentfulPaint": 1200.5, "largestContentfulPaint": 2100.0,
				"timeToInteractive": 3400.0, "speedIndex": 1800.0,
				"totalBlockingTime": 150.0, "cumulativeLayoutShift": 0.02,
			},
			"resources": map[string]any{"total": 42, "transferSize": 1048576, "byType": map[string]any{"Script": 12}},
		},
	}

	current := &model.TestRecord{
		URL:       "https://example.com",
		CreatedAt: created,
		Kind:      model.KindCombined,
		AccessibilitySummary: &model.ScanSummary{
			Violations: 3, Passes: 27, Incomplete: 1, Inapplicable: 12, Score: 90,
		},
		AccessibilityDetail: &model.AccessibilityDetail{
			Violations: []model.IssueRecord{{RuleID: "image-alt", Impact: "critical", Description: "Images must have alternate text"}},
			Passes:     []model.IssueRecord{},
		},
		PerformanceScores: &model.CategoryScores{Performance: 72, Accessibility: 90, SEO: 100, BestPractices: 83},
		PerformanceMetrics: &model.PerformanceMetrics{
			Timing: model.TimingMetrics{
				FirstContentfulPaint: 1200.5, LargestContentfulPaint: 2100,
				TimeToInteractive: 3400, SpeedIndex: 1800,
				TotalBlockingTime: 150, CumulativeLayoutShift: 0.02,
			},
			Resources: model.ResourceBreakdown{Total: 42, TransferSize: 1048576, ByType: map[string]int{"Script": 12}},
		},
		Engines: []model.EngineInfo{{Name: "axe-core", Version: "4.8.2"}},
	}

	legacyJSON, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy: %v", err)
	}
	currentJSON, err := json.Marshal(current)
	if err != nil {
		t.Fatalf("marshal current: %v", err)
	}

	fromLegacy, err := NormalizeDocument(legacyJSON)
	if err != nil {
		t.Fatalf("normalize legacy: %v", err)
	}
	fromCurrent, err := NormalizeDocument(currentJSON)
	if err != nil {
		t.Fatalf("normalize current: %v", err)
	}

	if !reflect.DeepEqual(fromLegacy, fromCurrent) {
		t.Fatalf("legacy and current shapes diverge after normalization\nlegacy:  %+v\ncurrent: %+v", fromLegacy, fromCurrent)
	}
}

func TestNormalizeInfersKind(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want model.Kind
	}{
		{"accessibility only", `{"url":"https://a.test","summary":{"score":100}}`, model.KindAccessibility},
		{"performance only", `{"url":"https://a.test","lighthouseResults":{"scores":{"performance":50}}}`, model.KindPerformance},
		{"both", `{"url":"https://a.test","summary":{"score":100},"lighthouseResults":{"scores":{"performance":50}}}`, model.KindCombined},
		{"explicit kind wins", `{"url":"https://a.test","kind":"performance","summary":{"score":100}}`, model.KindPerformance},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NormalizeDocument([]byte(tc.doc))
			if err != nil {
				t.Fatalf("NormalizeDocument: %v", err)
			}
			if rec.Kind != tc.want {
				t.Fatalf("kind = %q, want %q", rec.Kind, tc.want)
			}
		})
	}
}
