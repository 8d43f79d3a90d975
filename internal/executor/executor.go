// Package executor adapts the scanning engines to one common contract: run
// a scan against a URL and hand back the TestRecord fields that scanner
// contributes.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/accessify/insight/internal/model"
)

// Result is the fragment of a TestRecord that one executor contributes.
type Result struct {
	Kind model.Kind

	Summary *model.ScanSummary
	Detail  *model.AccessibilityDetail

	Scores  *model.CategoryScores
	Metrics *model.PerformanceMetrics

	Engine model.EngineInfo
}

// Executor runs one scanning capability against a URL.
type Executor interface {
	// Kind identifies which record fields this executor populates.
	Kind() model.Kind

	// Execute runs one scan. The implementation releases any browser
	// session it opened before returning, on every exit path.
	Execute(ctx context.Context, url string, opts *model.ScanOptions) (*Result, error)
}

// Failure wraps an engine error with the executor that raised it. Failures
// are never retried by the server.
type Failure struct {
	Executor model.Kind
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s executor: %v", f.Executor, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// fail wraps err unless it already is a Failure.
func fail(kind model.Kind, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Executor: kind, Err: err}
}
