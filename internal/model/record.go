// Package model holds the persisted and wire-level result shapes shared by
// the executors, the orchestrator, the store and the HTTP surface.
package model

import (
	"math"
	"time"
)

// Kind says which scanners contributed to a TestRecord.
type Kind string

const (
	KindAccessibility Kind = "accessibility"
	KindPerformance   Kind = "performance"
	KindCombined      Kind = "combined"
)

// EngineVersionUnknown is recorded when an engine does not report a version.
const EngineVersionUnknown = "unknown"

// EngineInfo identifies the scanning engine that produced a result.
type EngineInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ScanSummary is the derived accessibility rollup for one scan.
type ScanSummary struct {
	Violations   int `json:"violations"`
	Passes       int `json:"passes"`
	Incomplete   int `json:"incomplete"`
	Inapplicable int `json:"inapplicable"`

	// Score is round(100 * passes / (passes + violations)), with the divisor
	// floored at 1. Both counts zero means a perfect 100.
	Score int `json:"score"`
}

// Summarize computes a ScanSummary from the four result buckets.
func Summarize(detail *AccessibilityDetail) ScanSummary {
	s := ScanSummary{}
	if detail != nil {
		s.Violations = len(detail.Violations)
		s.Passes = len(detail.Passes)
		s.Incomplete = len(detail.Incomplete)
		s.Inapplicable = len(detail.Inapplicable)
	}
	s.Score = SummaryScore(s.Passes, s.Violations)
	return s
}

// SummaryScore computes the 0..100 pass ratio with a zero-safe divisor.
// A page with neither passes nor violations scores a clean 100.
func SummaryScore(passes, violations int) int {
	if passes+violations == 0 {
		return 100
	}
	return int(math.Round(100 * float64(passes) / float64(passes+violations)))
}

// NodeCheck is one check the rule engine ran against a node.
type NodeCheck struct {
	ID      string `json:"id"`
	Impact  string `json:"impact,omitempty"`
	Message string `json:"message,omitempty"`
}

// NodeResult describes one affected DOM node inside an IssueRecord.
type NodeResult struct {
	HTML           string      `json:"html"`
	Target         []string    `json:"target"`
	FailureSummary string      `json:"failureSummary,omitempty"`
	Any            []NodeCheck `json:"any,omitempty"`
	All            []NodeCheck `json:"all,omitempty"`
	None           []NodeCheck `json:"none,omitempty"`
}

// IssueRecord is one rule result (violation, pass, incomplete or
// inapplicable). Produced once by an executor, immutable after persistence.
type IssueRecord struct {
	RuleID      string       `json:"id"`
	Impact      string       `json:"impact,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Description string       `json:"description"`
	Help        string       `json:"help,omitempty"`
	HelpURL     string       `json:"helpUrl,omitempty"`
	Nodes       []NodeResult `json:"nodes,omitempty"`

	// Populated only by the enhanced accessibility executor.
	WCAGCriteria  []string `json:"wcagCriteria,omitempty"`
	PriorityScore int      `json:"priorityScore,omitempty"`
}

// AccessibilityDetail carries the four rule-engine result buckets.
type AccessibilityDetail struct {
	Violations   []IssueRecord `json:"violations"`
	Passes       []IssueRecord `json:"passes"`
	Incomplete   []IssueRecord `json:"incomplete"`
	Inapplicable []IssueRecord `json:"inapplicable"`
}

// CategoryScores are the audit engine's fixed category scores, 0..100.
type CategoryScores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	SEO           int `json:"seo"`
	BestPractices int `json:"bestPractices"`
}

// TimingMetrics are the audit engine's six fixed timing values, in
// milliseconds except CumulativeLayoutShift which is unitless. Absent
// audits report 0.
type TimingMetrics struct {
	FirstContentfulPaint   float64 `json:"firstContentfulPaint"`
	LargestContentfulPaint float64 `json:"largestContentfulPaint"`
	TimeToInteractive      float64 `json:"timeToInteractive"`
	SpeedIndex             float64 `json:"speedIndex"`
	TotalBlockingTime      float64 `json:"totalBlockingTime"`
	CumulativeLayoutShift  float64 `json:"cumulativeLayoutShift"`
}

// ResourceBreakdown tallies fetched resources by type.
type ResourceBreakdown struct {
	Total        int            `json:"total"`
	TransferSize int64          `json:"transferSize"`
	ByType       map[string]int `json:"byType,omitempty"`
}

// PerformanceMetrics groups the audit engine's non-score output.
type PerformanceMetrics struct {
	Timing    TimingMetrics     `json:"timing"`
	Resources ResourceBreakdown `json:"resources"`
}

// TestRecord is the persisted result of one scan request. The store assigns
// ID and CreatedAt exactly once at creation; records are never updated.
// Kind determines which optional sections are populated, and in a combined
// record either section may be absent when that executor failed.
type TestRecord struct {
	ID        string    `json:"id,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	Kind      Kind      `json:"kind"`

	AccessibilitySummary *ScanSummary         `json:"summary,omitempty"`
	AccessibilityDetail  *AccessibilityDetail `json:"results,omitempty"`

	PerformanceScores  *CategoryScores     `json:"scores,omitempty"`
	PerformanceMetrics *PerformanceMetrics `json:"metrics,omitempty"`

	Engines []EngineInfo `json:"engines,omitempty"`
}

// HasAccessibility reports whether the accessibility executor contributed.
func (r *TestRecord) HasAccessibility() bool {
	return r.AccessibilitySummary != nil || r.AccessibilityDetail != nil
}

// HasPerformance reports whether the performance executor contributed.
func (r *TestRecord) HasPerformance() bool {
	return r.PerformanceScores != nil || r.PerformanceMetrics != nil
}

// ScanRequest is the transient input of one scan call.
type ScanRequest struct {
	URL     string       `json:"url"`
	Options *ScanOptions `json:"options,omitempty"`
}

// ScanOptions is per-executor configuration carried opaquely from the
// caller to the rule engine.
type ScanOptions struct {
	// Rules restricts the rule engine to the given rule ids when non-empty.
	Rules []string `json:"rules,omitempty"`

	// TimeoutMS bounds page navigation. Zero means the configured default.
	TimeoutMS int `json:"timeout,omitempty"`
}
