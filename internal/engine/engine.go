// Package engine wraps the scanning capabilities the executors consume as
// black boxes: a rule engine that buckets accessibility results, and an
// audit engine that scores pages across fixed categories.
package engine

import (
	"context"

	"github.com/accessify/insight/internal/model"
)

// RuleReport is the normalized output of one rule-engine run.
type RuleReport struct {
	Violations   []model.IssueRecord
	Passes       []model.IssueRecord
	Incomplete   []model.IssueRecord
	Inapplicable []model.IssueRecord

	Engine model.EngineInfo
}

// RuleEngine evaluates a rendered page against an accessibility rule set.
type RuleEngine interface {
	// Run navigates to url, evaluates the rules and returns the bucketed
	// report. Any browser session opened for the run is released before
	// Run returns, on success and on failure alike.
	Run(ctx context.Context, url string, opts *model.ScanOptions) (*RuleReport, error)
}

// AuditReport is the normalized output of one audit-engine run.
type AuditReport struct {
	Scores    model.CategoryScores
	Timing    model.TimingMetrics
	Resources model.ResourceBreakdown

	Engine model.EngineInfo
}

// AuditEngine scores a page across the fixed performance/SEO/best-practices
// categories and reports timing and resource metrics.
type AuditEngine interface {
	Run(ctx context.Context, url string) (*AuditReport, error)
}
