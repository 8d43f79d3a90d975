package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/accessify/insight/internal/model"
)

// legacyLighthouse is the mongo-era embedded lighthouse result. Scores,
// timing and resources lived side by side in one object instead of the
// scores/metrics split used today.
type legacyLighthouse struct {
	Scores    *model.CategoryScores    `json:"scores"`
	Timing    *model.TimingMetrics     `json:"timing"`
	Resources *model.ResourceBreakdown `json:"resources"`
}

// document is the superset of every persisted record shape. Current-form
// fields come from the embedded TestRecord; the legacy extras sit beside
// them under keys the current shape never writes.
type document struct {
	model.TestRecord

	Timestamp  *time.Time        `json:"timestamp,omitempty"`
	TestEngine *model.EngineInfo `json:"testEngine,omitempty"`
	Lighthouse *legacyLighthouse `json:"lighthouseResults,omitempty"`
}

// NormalizeDocument decodes a persisted document of any known shape into
// the current TestRecord. It is pure: the same bytes always produce the
// same record, used at read time so stored documents are never rewritten.
func NormalizeDocument(doc []byte) (*model.TestRecord, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode record document: %w", err)
	}

	rec := d.TestRecord

	if d.Timestamp != nil && rec.CreatedAt.IsZero() {
		rec.CreatedAt = d.Timestamp.UTC()
	}
	if d.TestEngine != nil && len(rec.Engines) == 0 {
		rec.Engines = []model.EngineInfo{*d.TestEngine}
	}
	if lh := d.Lighthouse; lh != nil {
		if rec.PerformanceScores == nil && lh.Scores != nil {
			scores := *lh.Scores
			rec.PerformanceScores = &scores
		}
		if rec.PerformanceMetrics == nil && (lh.Timing != nil || lh.Resources != nil) {
			m := &model.PerformanceMetrics{}
			if lh.Timing != nil {
				m.Timing = *lh.Timing
			}
			if lh.Resources != nil {
				m.Resources = *lh.Resources
			}
			rec.PerformanceMetrics = m
		}
	}

	if rec.Kind == "" {
		rec.Kind = inferKind(&rec)
	}
	return &rec, nil
}

// inferKind derives the record kind for documents written before kind
// existed, from which sections are populated.
func inferKind(rec *model.TestRecord) model.Kind {
	switch {
	case rec.HasAccessibility() && rec.HasPerformance():
		return model.KindCombined
	case rec.HasPerformance():
		return model.KindPerformance
	default:
		return model.KindAccessibility
	}
}
