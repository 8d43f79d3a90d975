// Package orchestrator fans a scan request out over the enabled executors,
// settles every outcome, and persists whatever succeeded as one record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/accessify/insight/internal/executor"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/urlutil"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	Create(ctx context.Context, rec *model.TestRecord) (*model.TestRecord, error)
}

// Options selects which executors run and how.
type Options struct {
	Accessibility bool
	Performance   bool

	// Enhanced turns on WCAG criteria mapping and priority scoring for
	// accessibility violations.
	Enhanced bool

	Scan *model.ScanOptions
}

// Outcome is one executor's settled result, success or failure. Every
// enabled executor produces exactly one Outcome per run.
type Outcome struct {
	Kind   model.Kind
	Result *executor.Result
	Err    error
}

// Orchestrator runs scans and persists their combined records.
type Orchestrator struct {
	accessibility executor.Executor
	enhanced      executor.Executor
	performance   executor.Executor
	store         Store
	logger        logging.Logger
}

// New builds an Orchestrator. The enhanced executor may be nil, in which
// case Enhanced requests fall back to the plain accessibility executor.
func New(accessibility, enhanced, performance executor.Executor, store Store, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &Orchestrator{
		accessibility: accessibility,
		enhanced:      enhanced,
		performance:   performance,
		store:         store,
		logger:        logger,
	}
}

// RunAnalysis executes the enabled executors concurrently and persists a
// record built from the successful subset. One executor failing does not
// cancel the other; the run fails only when every executor failed, and
// then nothing is persisted.
func (o *Orchestrator) RunAnalysis(ctx context.Context, url string, opts Options) (*model.TestRecord, []Outcome, error) {
	if _, err := urlutil.ValidateScanTarget(url); err != nil {
		return nil, nil, fmt.Errorf("invalid scan target %q: %w", url, err)
	}

	execs := o.enabled(opts)
	if len(execs) == 0 {
		return nil, nil, errors.New("no executors enabled")
	}

	o.logger.Info("starting analysis",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "executors", Value: len(execs)})

	// Settle-all: every goroutine returns nil so a failing executor never
	// cancels its siblings. Failures land in the outcome slice instead.
	outcomes := make([]Outcome, len(execs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range execs {
		g.Go(func() error {
			res, err := ex.Execute(gctx, url, opts.Scan)
			outcomes[i] = Outcome{Kind: ex.Kind(), Result: res, Err: err}
			if err != nil {
				o.logger.Warn("executor failed",
					logging.Field{Key: "kind", Value: ex.Kind()},
					logging.Field{Key: "error", Value: err.Error()})
			}
			return nil
		})
	}
	g.Wait()

	rec, err := assemble(url, outcomes)
	if err != nil {
		return nil, outcomes, err
	}

	created, err := o.store.Create(ctx, rec)
	if err != nil {
		return nil, outcomes, fmt.Errorf("persist analysis for %s: %w", url, err)
	}

	o.logger.Info("analysis complete",
		logging.Field{Key: "id", Value: created.ID},
		logging.Field{Key: "kind", Value: created.Kind})
	return created, outcomes, nil
}

func (o *Orchestrator) enabled(opts Options) []executor.Executor {
	var execs []executor.Executor
	if opts.Accessibility {
		ex := o.accessibility
		if opts.Enhanced && o.enhanced != nil {
			ex = o.enhanced
		}
		if ex != nil {
			execs = append(execs, ex)
		}
	}
	if opts.Performance && o.performance != nil {
		execs = append(execs, o.performance)
	}
	return execs
}

// assemble folds the settled outcomes into one unsaved record. With no
// successes it returns a combined error naming every underlying failure.
func assemble(url string, outcomes []Outcome) (*model.TestRecord, error) {
	rec := &model.TestRecord{URL: url}
	var okKinds []model.Kind
	var failures []string

	for _, oc := range outcomes {
		if oc.Err != nil {
			failures = append(failures, oc.Err.Error())
			continue
		}
		okKinds = append(okKinds, oc.Kind)

		res := oc.Result
		if res.Summary != nil {
			rec.AccessibilitySummary = res.Summary
		}
		if res.Detail != nil {
			rec.AccessibilityDetail = res.Detail
		}
		if res.Scores != nil {
			rec.PerformanceScores = res.Scores
		}
		if res.Metrics != nil {
			rec.PerformanceMetrics = res.Metrics
		}
		if res.Engine.Name != "" {
			rec.Engines = append(rec.Engines, res.Engine)
		}
	}

	if len(okKinds) == 0 {
		return nil, fmt.Errorf("all executors failed: %s", strings.Join(failures, "; "))
	}

	rec.Kind = kindOf(okKinds)
	return rec, nil
}

// kindOf derives the record kind from the executors that succeeded, not
// from the ones that were requested.
func kindOf(kinds []model.Kind) model.Kind {
	var a11y, perf bool
	for _, k := range kinds {
		switch k {
		case model.KindAccessibility:
			a11y = true
		case model.KindPerformance:
			perf = true
		}
	}
	switch {
	case a11y && perf:
		return model.KindCombined
	case perf:
		return model.KindPerformance
	default:
		return model.KindAccessibility
	}
}
