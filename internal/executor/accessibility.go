package executor

import (
	"context"
	"strings"

	"github.com/accessify/insight/internal/engine"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

// AccessibilityExecutor wraps a rule engine and normalizes its report into
// a summary plus the four detail buckets. The optional enrichment step adds
// WCAG criteria references and a priority score to each violation instead
// of living in a separate executor type.
type AccessibilityExecutor struct {
	engine   engine.RuleEngine
	enhanced bool
	logger   logging.Logger
}

// NewAccessibilityExecutor wires a rule engine. enhanced toggles the
// enrichment step.
func NewAccessibilityExecutor(eng engine.RuleEngine, enhanced bool, logger logging.Logger) *AccessibilityExecutor {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &AccessibilityExecutor{
		engine:   eng,
		enhanced: enhanced,
		logger:   logger.With(logging.Field{Key: "component", Value: "accessibility-executor"}),
	}
}

// Kind implements Executor.
func (e *AccessibilityExecutor) Kind() model.Kind { return model.KindAccessibility }

// Execute implements Executor.
func (e *AccessibilityExecutor) Execute(ctx context.Context, url string, opts *model.ScanOptions) (*Result, error) {
	report, err := e.engine.Run(ctx, url, opts)
	if err != nil {
		e.logger.Warn("rule engine failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fail(model.KindAccessibility, err)
	}

	detail := &model.AccessibilityDetail{
		Violations:   report.Violations,
		Passes:       report.Passes,
		Incomplete:   report.Incomplete,
		Inapplicable: report.Inapplicable,
	}
	if e.enhanced {
		detail.Violations = Enrich(detail.Violations)
	}

	summary := model.Summarize(detail)
	e.logger.Info("scan complete",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "violations", Value: summary.Violations},
		logging.Field{Key: "score", Value: summary.Score})

	return &Result{
		Kind:    model.KindAccessibility,
		Summary: &summary,
		Detail:  detail,
		Engine:  report.Engine,
	}, nil
}

// Enrich returns a copy of violations with the standards mapping and
// priority score filled in.
func Enrich(violations []model.IssueRecord) []model.IssueRecord {
	out := make([]model.IssueRecord, len(violations))
	for i, v := range violations {
		v.WCAGCriteria = mapCriteria(v.Tags)
		v.PriorityScore = PriorityScore(v.Impact, len(v.Nodes))
		out[i] = v
	}
	return out
}

// mapCriteria translates wcag-prefixed tags into criterion references,
// keeping the raw tag when no mapping exists.
func mapCriteria(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "wcag") {
			continue
		}
		if criterion, ok := wcagCriteria[tag]; ok {
			out = append(out, criterion)
		} else {
			out = append(out, tag)
		}
	}
	return out
}

// PriorityScore is impact weight times affected element count. Unknown
// impacts weigh 0.
func PriorityScore(impact string, nodeCount int) int {
	return impactWeights[impact] * nodeCount
}
