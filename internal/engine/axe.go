package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/accessify/insight/internal/browser"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

// AxeEngine runs the axe-core rule set inside a rendered page. The axe
// bundle is consumed as an artifact on disk (axe.min.js) and injected into
// every scanned page; it is never vendored into this repository.
type AxeEngine struct {
	source     string
	navTimeout time.Duration
	headless   bool
	logger     logging.Logger
}

// NewAxeEngine loads the axe-core bundle from scriptPath and returns an
// engine ready to scan.
func NewAxeEngine(scriptPath string, navTimeout time.Duration, headless bool, logger logging.Logger) (*AxeEngine, error) {
	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("read axe script %s: %w", scriptPath, err)
	}
	if logger == nil {
		logger = logging.Discard{}
	}
	return &AxeEngine{
		source:     string(raw),
		navTimeout: navTimeout,
		headless:   headless,
		logger:     logger.With(logging.Field{Key: "component", Value: "axe-engine"}),
	}, nil
}

// axeResult mirrors the subset of axe.run() output the executor needs.
type axeResult struct {
	Violations   []axeIssue `json:"violations"`
	Passes       []axeIssue `json:"passes"`
	Incomplete   []axeIssue `json:"incomplete"`
	Inapplicable []axeIssue `json:"inapplicable"`
	TestEngine   struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"testEngine"`
}

type axeIssue struct {
	ID          string   `json:"id"`
	Impact      string   `json:"impact"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Help        string   `json:"help"`
	HelpURL     string   `json:"helpUrl"`
	Nodes       []struct {
		HTML           string     `json:"html"`
		Target         []string   `json:"target"`
		FailureSummary string     `json:"failureSummary"`
		Any            []axeCheck `json:"any"`
		All            []axeCheck `json:"all"`
		None           []axeCheck `json:"none"`
	} `json:"nodes"`
}

type axeCheck struct {
	ID      string `json:"id"`
	Impact  string `json:"impact"`
	Message string `json:"message"`
}

// Run implements RuleEngine.
func (e *AxeEngine) Run(ctx context.Context, url string, opts *model.ScanOptions) (*RuleReport, error) {
	session, err := browser.NewSession(ctx, browser.Options{Headless: e.headless})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer session.Close()

	timeout := e.navTimeout
	if opts != nil && opts.TimeoutMS > 0 {
		timeout = time.Duration(opts.TimeoutMS) * time.Millisecond
	}

	e.logger.Info("scanning url", logging.Field{Key: "url", Value: url})
	if err := session.Navigate(url, timeout); err != nil {
		return nil, err
	}

	if err := session.Evaluate(ctx, e.source, nil); err != nil {
		return nil, fmt.Errorf("inject axe: %w", err)
	}

	runExpr := "axe.run(document)"
	if opts != nil && len(opts.Rules) > 0 {
		ruleJSON, err := json.Marshal(opts.Rules)
		if err != nil {
			return nil, fmt.Errorf("encode rule filter: %w", err)
		}
		runExpr = fmt.Sprintf("axe.run(document, {runOnly: {type: 'rule', values: %s}})", ruleJSON)
	}

	var res axeResult
	if err := session.EvaluatePromise(ctx, runExpr, &res); err != nil {
		return nil, fmt.Errorf("run axe: %w", err)
	}

	report := &RuleReport{
		Violations:   issuesFromAxe(res.Violations),
		Passes:       issuesFromAxe(res.Passes),
		Incomplete:   issuesFromAxe(res.Incomplete),
		Inapplicable: issuesFromAxe(res.Inapplicable),
		Engine: model.EngineInfo{
			Name:    res.TestEngine.Name,
			Version: res.TestEngine.Version,
		},
	}
	if report.Engine.Name == "" {
		report.Engine.Name = "axe-core"
	}
	if report.Engine.Version == "" {
		report.Engine.Version = model.EngineVersionUnknown
	}
	return report, nil
}

func issuesFromAxe(issues []axeIssue) []model.IssueRecord {
	out := make([]model.IssueRecord, 0, len(issues))
	for _, in := range issues {
		rec := model.IssueRecord{
			RuleID:      in.ID,
			Impact:      in.Impact,
			Tags:        in.Tags,
			Description: in.Description,
			Help:        in.Help,
			HelpURL:     in.HelpURL,
		}
		for _, n := range in.Nodes {
			rec.Nodes = append(rec.Nodes, model.NodeResult{
				HTML:           n.HTML,
				Target:         n.Target,
				FailureSummary: n.FailureSummary,
				Any:            checksFromAxe(n.Any),
				All:            checksFromAxe(n.All),
				None:           checksFromAxe(n.None),
			})
		}
		out = append(out, rec)
	}
	return out
}

func checksFromAxe(checks []axeCheck) []model.NodeCheck {
	if len(checks) == 0 {
		return nil
	}
	out := make([]model.NodeCheck, 0, len(checks))
	for _, c := range checks {
		out = append(out, model.NodeCheck{ID: c.ID, Impact: c.Impact, Message: c.Message})
	}
	return out
}
