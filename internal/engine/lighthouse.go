package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

// LighthouseEngine drives the lighthouse CLI as a subprocess. The audit
// engine is an external Node program; we consume its JSON report and
// nothing else.
type LighthouseEngine struct {
	bin    string
	logger logging.Logger

	// runCmd is swapped in tests to avoid spawning the real binary.
	runCmd func(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// NewLighthouseEngine returns an audit engine using the given lighthouse
// binary (path or name resolved via PATH).
func NewLighthouseEngine(bin string, logger logging.Logger) *LighthouseEngine {
	if bin == "" {
		bin = "lighthouse"
	}
	if logger == nil {
		logger = logging.Discard{}
	}
	return &LighthouseEngine{
		bin:    bin,
		logger: logger.With(logging.Field{Key: "component", Value: "lighthouse-engine"}),
		runCmd: runLighthouseCmd,
	}
}

func runLighthouseCmd(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("lighthouse: %s", msg)
	}
	return stdout.Bytes(), nil
}

// lhr mirrors the subset of the Lighthouse result document we extract.
type lhr struct {
	LighthouseVersion string `json:"lighthouseVersion"`
	Categories        map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]struct {
		NumericValue *float64 `json:"numericValue"`
		Details      struct {
			Items []map[string]any `json:"items"`
		} `json:"details"`
	} `json:"audits"`
}

// Run implements AuditEngine.
func (e *LighthouseEngine) Run(ctx context.Context, url string) (*AuditReport, error) {
	e.logger.Info("auditing url", logging.Field{Key: "url", Value: url})

	out, err := e.runCmd(ctx, e.bin,
		url,
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--only-categories=accessibility,performance,best-practices,seo",
		"--chrome-flags=--headless --no-sandbox --disable-gpu --disable-dev-shm-usage",
	)
	if err != nil {
		return nil, err
	}

	var doc lhr
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("decode lighthouse report: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("lighthouse returned no categories")
	}

	report := &AuditReport{
		Scores: model.CategoryScores{
			Performance:   doc.categoryScore("performance"),
			Accessibility: doc.categoryScore("accessibility"),
			SEO:           doc.categoryScore("seo"),
			BestPractices: doc.categoryScore("best-practices"),
		},
		Timing: model.TimingMetrics{
			FirstContentfulPaint:   doc.auditValue("first-contentful-paint"),
			LargestContentfulPaint: doc.auditValue("largest-contentful-paint"),
			TimeToInteractive:      doc.auditValue("interactive"),
			SpeedIndex:             doc.auditValue("speed-index"),
			TotalBlockingTime:      doc.auditValue("total-blocking-time"),
			CumulativeLayoutShift:  doc.auditValue("cumulative-layout-shift"),
		},
		Resources: doc.resourceBreakdown(),
		Engine:    model.EngineInfo{Name: "lighthouse", Version: doc.LighthouseVersion},
	}
	if report.Engine.Version == "" {
		report.Engine.Version = model.EngineVersionUnknown
	}
	return report, nil
}

// categoryScore rounds a 0..1 category score to 0..100; a missing or null
// category reports 0.
func (d *lhr) categoryScore(name string) int {
	cat, ok := d.Categories[name]
	if !ok || cat.Score == nil {
		return 0
	}
	return int(math.Round(*cat.Score * 100))
}

// auditValue returns an audit's numericValue, defaulting to 0 when absent.
func (d *lhr) auditValue(id string) float64 {
	audit, ok := d.Audits[id]
	if !ok || audit.NumericValue == nil {
		return 0
	}
	return *audit.NumericValue
}

// resourceBreakdown tallies the resource-summary audit items: one entry per
// resource type with a request count and transfer size total.
func (d *lhr) resourceBreakdown() model.ResourceBreakdown {
	out := model.ResourceBreakdown{ByType: map[string]int{}}
	summary, ok := d.Audits["resource-summary"]
	if !ok {
		return out
	}
	for _, item := range summary.Details.Items {
		typ, _ := item["resourceType"].(string)
		size, sized := item["transferSize"].(float64)
		if typ == "" || typ == "total" || !sized || size == 0 {
			continue
		}
		count := 1
		if rc, ok := item["requestCount"].(float64); ok && rc > 0 {
			count = int(rc)
		}
		out.ByType[typ] += count
		out.Total += count
		out.TransferSize += int64(size)
	}
	return out
}
