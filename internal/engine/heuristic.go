package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/accessify/insight/internal/browser"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

// heuristicVersion identifies the built-in rule set.
const heuristicVersion = "1.0.0"

// HeuristicEngine is the in-process fallback rule engine used when no
// axe-core bundle is configured. It renders the page in a browser session
// and evaluates a fixed set of document-level accessibility rules against
// the resulting markup.
type HeuristicEngine struct {
	navTimeout time.Duration
	headless   bool
	logger     logging.Logger
}

// NewHeuristicEngine returns the built-in rule engine.
func NewHeuristicEngine(navTimeout time.Duration, headless bool, logger logging.Logger) *HeuristicEngine {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &HeuristicEngine{
		navTimeout: navTimeout,
		headless:   headless,
		logger:     logger.With(logging.Field{Key: "component", Value: "heuristic-engine"}),
	}
}

// Run implements RuleEngine.
func (e *HeuristicEngine) Run(ctx context.Context, url string, opts *model.ScanOptions) (*RuleReport, error) {
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

	html, err := session.OuterHTML()
	if err != nil {
		return nil, err
	}

	return EvaluateHTML(html, ruleFilter(opts))
}

func ruleFilter(opts *model.ScanOptions) map[string]bool {
	if opts == nil || len(opts.Rules) == 0 {
		return nil
	}
	m := make(map[string]bool, len(opts.Rules))
	for _, r := range opts.Rules {
		m[r] = true
	}
	return m
}

// heuristicRule is one fixed document rule. check returns the failing nodes
// and the number of applicable elements.
type heuristicRule struct {
	id          string
	impact      string
	tags        []string
	description string
	help        string
	check       func(doc *goquery.Document) (failed []model.NodeResult, applicable int)
}

var heuristicRules = []heuristicRule{
	{
		id:          "document-title",
		impact:      "serious",
		tags:        []string{"wcag2a", "wcag242"},
		description: "Documents must have a non-empty <title> element",
		help:        "Document has a title",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			title := strings.TrimSpace(doc.Find("head title").First().Text())
			if title == "" {
				return []model.NodeResult{nodeFor(doc.Find("html").First(), "document has no title")}, 1
			}
			return nil, 1
		},
	},
	{
		id:          "html-has-lang",
		impact:      "serious",
		tags:        []string{"wcag2a", "wcag311"},
		description: "The <html> element must have a lang attribute",
		help:        "Page has a language",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			htmlSel := doc.Find("html").First()
			if lang, _ := htmlSel.Attr("lang"); strings.TrimSpace(lang) == "" {
				return []model.NodeResult{nodeFor(htmlSel, "missing lang attribute")}, 1
			}
			return nil, 1
		},
	},
	{
		id:          "image-alt",
		impact:      "critical",
		tags:        []string{"wcag2a", "wcag111"},
		description: "Images must have alternate text",
		help:        "Image has an alt attribute",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			var failed []model.NodeResult
			imgs := doc.Find("img")
			imgs.Each(func(_ int, s *goquery.Selection) {
				if _, ok := s.Attr("alt"); !ok {
					role, _ := s.Attr("role")
					if role != "presentation" && role != "none" {
						failed = append(failed, nodeFor(s, "image has no alt attribute"))
					}
				}
			})
			return failed, imgs.Length()
		},
	},
	{
		id:          "label",
		impact:      "critical",
		tags:        []string{"wcag2a", "wcag412"},
		description: "Form inputs must have an associated label",
		help:        "Form input has a label",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			var failed []model.NodeResult
			inputs := doc.Find("input, select, textarea").FilterFunction(func(_ int, s *goquery.Selection) bool {
				typ, _ := s.Attr("type")
				switch strings.ToLower(typ) {
				case "hidden", "submit", "button", "reset", "image":
					return false
				}
				return true
			})
			inputs.Each(func(_ int, s *goquery.Selection) {
				if _, ok := s.Attr("aria-label"); ok {
					return
				}
				if _, ok := s.Attr("aria-labelledby"); ok {
					return
				}
				if id, ok := s.Attr("id"); ok && id != "" {
					if doc.Find("label[for='"+id+"']").Length() > 0 {
						return
					}
				}
				if s.ParentsFiltered("label").Length() > 0 {
					return
				}
				failed = append(failed, nodeFor(s, "input has no associated label"))
			})
			return failed, inputs.Length()
		},
	},
	{
		id:          "link-name",
		impact:      "serious",
		tags:        []string{"wcag2a", "wcag244"},
		description: "Links must have discernible text",
		help:        "Link has accessible text",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			var failed []model.NodeResult
			links := doc.Find("a[href]")
			links.Each(func(_ int, s *goquery.Selection) {
				if !hasAccessibleText(s) {
					failed = append(failed, nodeFor(s, "link has no discernible text"))
				}
			})
			return failed, links.Length()
		},
	},
	{
		id:          "button-name",
		impact:      "critical",
		tags:        []string{"wcag2a", "wcag412"},
		description: "Buttons must have discernible text",
		help:        "Button has accessible text",
		check: func(doc *goquery.Document) ([]model.NodeResult, int) {
			var failed []model.NodeResult
			buttons := doc.Find("button")
			buttons.Each(func(_ int, s *goquery.Selection) {
				if !hasAccessibleText(s) {
					failed = append(failed, nodeFor(s, "button has no discernible text"))
				}
			})
			return failed, buttons.Length()
		},
	},
}

func hasAccessibleText(s *goquery.Selection) bool {
	if strings.TrimSpace(s.Text()) != "" {
		return true
	}
	if label, ok := s.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return true
	}
	if _, ok := s.Attr("aria-labelledby"); ok {
		return true
	}
	// A labelled image inside counts as text.
	if alt, ok := s.Find("img").First().Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return true
	}
	return false
}

// nodeFor builds a NodeResult for a failing element: its markup snippet and
// a best-effort selector path.
func nodeFor(s *goquery.Selection, summary string) model.NodeResult {
	html, err := goquery.OuterHtml(s)
	if err != nil {
		html = ""
	}
	const maxSnippet = 300
	if len(html) > maxSnippet {
		html = html[:maxSnippet]
	}
	return model.NodeResult{
		HTML:           strings.TrimSpace(html),
		Target:         []string{selectorPath(s)},
		FailureSummary: summary,
	}
}

// selectorPath produces a readable CSS-ish path like "body > div#main > img".
func selectorPath(s *goquery.Selection) string {
	var parts []string
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		node := goquery.NodeName(cur)
		if node == "" || node == "#document" {
			break
		}
		if id, ok := cur.Attr("id"); ok && id != "" {
			parts = append([]string{node + "#" + id}, parts...)
			break
		}
		parts = append([]string{node}, parts...)
		if node == "html" {
			break
		}
	}
	return strings.Join(parts, " > ")
}

// EvaluateHTML runs the fixed rule set against raw markup. Exposed so the
// rule logic is testable without a browser. filter, when non-nil, restricts
// evaluation to the listed rule ids.
func EvaluateHTML(html string, filter map[string]bool) (*RuleReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	report := &RuleReport{
		Engine: model.EngineInfo{Name: "insight-heuristics", Version: heuristicVersion},
	}
	for _, rule := range heuristicRules {
		if filter != nil && !filter[rule.id] {
			continue
		}
		failed, applicable := rule.check(doc)
		issue := model.IssueRecord{
			RuleID:      rule.id,
			Tags:        rule.tags,
			Description: rule.description,
			Help:        rule.help,
		}
		switch {
		case applicable == 0:
			report.Inapplicable = append(report.Inapplicable, issue)
		case len(failed) > 0:
			issue.Impact = rule.impact
			issue.Nodes = failed
			report.Violations = append(report.Violations, issue)
		default:
			report.Passes = append(report.Passes, issue)
		}
	}
	return report, nil
}
