package executor

import (
	"context"

	"github.com/accessify/insight/internal/engine"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

// PerformanceExecutor wraps an audit engine and contributes the category
// scores plus timing/resource metrics.
type PerformanceExecutor struct {
	engine engine.AuditEngine
	logger logging.Logger
}

// NewPerformanceExecutor wires an audit engine.
func NewPerformanceExecutor(eng engine.AuditEngine, logger logging.Logger) *PerformanceExecutor {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &PerformanceExecutor{
		engine: eng,
		logger: logger.With(logging.Field{Key: "component", Value: "performance-executor"}),
	}
}

// Kind implements Executor.
func (e *PerformanceExecutor) Kind() model.Kind { return model.KindPerformance }

// Execute implements Executor.
func (e *PerformanceExecutor) Execute(ctx context.Context, url string, _ *model.ScanOptions) (*Result, error) {
	report, err := e.engine.Run(ctx, url)
	if err != nil {
		e.logger.Warn("audit engine failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fail(model.KindPerformance, err)
	}

	e.logger.Info("audit complete",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "performance", Value: report.Scores.Performance})

	scores := report.Scores
	return &Result{
		Kind:   model.KindPerformance,
		Scores: &scores,
		Metrics: &model.PerformanceMetrics{
			Timing:    report.Timing,
			Resources: report.Resources,
		},
		Engine: report.Engine,
	}, nil
}
