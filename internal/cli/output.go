package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/accessify/insight/internal/history"
	"github.com/accessify/insight/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecord(w io.Writer, rec *model.TestRecord) {
	fmt.Fprintf(w, "\n%s  (%s)\n", rec.URL, rec.Kind)
	fmt.Fprintf(w, "record %s, scanned %s\n", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	for _, eng := range rec.Engines {
		fmt.Fprintf(w, "engine: %s %s\n", eng.Name, eng.Version)
	}

	if s := rec.AccessibilitySummary; s != nil {
		fmt.Fprintf(w, "\nAccessibility score: %s\n", colorScore(s.Score))
		fmt.Fprintf(w, "%d violations, %d passes, %d incomplete, %d inapplicable\n",
			s.Violations, s.Passes, s.Incomplete, s.Inapplicable)
	}
	if d := rec.AccessibilityDetail; d != nil && len(d.Violations) > 0 {
		printViolations(w, d.Violations)
	}

	if sc := rec.PerformanceScores; sc != nil {
		fmt.Fprintln(w)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Performance", "Accessibility", "SEO", "Best Practices"})
		table.SetBorder(false)
		table.Append([]string{
			colorScore(sc.Performance),
			colorScore(sc.Accessibility),
			colorScore(sc.SEO),
			colorScore(sc.BestPractices),
		})
		table.Render()
	}
	if m := rec.PerformanceMetrics; m != nil {
		printTiming(w, m.Timing)
		fmt.Fprintf(w, "%d resources, %d bytes transferred\n", m.Resources.Total, m.Resources.TransferSize)
	}
}

func printViolations(w io.Writer, violations []model.IssueRecord) {
	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	headers := []string{"Impact", "Rule", "Nodes", "Description"}
	enriched := false
	for _, v := range violations {
		if v.PriorityScore > 0 || len(v.WCAGCriteria) > 0 {
			enriched = true
			break
		}
	}
	if enriched {
		headers = append(headers, "Priority", "WCAG")
	}
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")

	for _, v := range violations {
		row := []string{colorImpact(v.Impact), v.RuleID, strconv.Itoa(len(v.Nodes)), v.Description}
		if enriched {
			row = append(row, strconv.Itoa(v.PriorityScore), strings.Join(v.WCAGCriteria, ", "))
		}
		table.Append(row)
	}
	table.Render()
}

func printTiming(w io.Writer, t model.TimingMetrics) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.Append([]string{"First Contentful Paint", fmt.Sprintf("%.0f ms", t.FirstContentfulPaint)})
	table.Append([]string{"Largest Contentful Paint", fmt.Sprintf("%.0f ms", t.LargestContentfulPaint)})
	table.Append([]string{"Time to Interactive", fmt.Sprintf("%.0f ms", t.TimeToInteractive)})
	table.Append([]string{"Speed Index", fmt.Sprintf("%.0f ms", t.SpeedIndex)})
	table.Append([]string{"Total Blocking Time", fmt.Sprintf("%.0f ms", t.TotalBlockingTime)})
	table.Append([]string{"Cumulative Layout Shift", fmt.Sprintf("%.3f", t.CumulativeLayoutShift)})
	table.Render()
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scan history.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "URL", "A11y", "Perf", "SEO", "Best Practices", "Issues"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")

	for _, e := range entries {
		table.Append([]string{
			e.Date,
			e.URL,
			colorScore(e.AccessibilityScore),
			colorScore(e.PerformanceScore),
			colorScore(e.SEOScore),
			colorScore(e.BestPracticesScore),
			strconv.Itoa(e.Issues),
		})
	}
	table.Render()
}

func printComparison(w io.Writer, rows []history.ComparisonRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Current", "Previous", "Change"})
	table.SetBorder(false)

	for _, row := range rows {
		table.Append([]string{row.Category, strconv.Itoa(row.Current), strconv.Itoa(row.Previous), colorDelta(row.Current - row.Previous)})
	}
	table.Render()
}

func colorScore(score int) string {
	switch {
	case score >= 90:
		return color.GreenString("%d", score)
	case score >= 50:
		return color.YellowString("%d", score)
	default:
		return color.RedString("%d", score)
	}
}

func colorImpact(impact string) string {
	switch impact {
	case "critical":
		return color.RedString("CRITICAL")
	case "serious":
		return color.RedString("SERIOUS")
	case "moderate":
		return color.YellowString("MODERATE")
	case "minor":
		return color.CyanString("MINOR")
	default:
		return impact
	}
}

func colorDelta(d int) string {
	switch {
	case d > 0:
		return color.GreenString("+%d", d)
	case d < 0:
		return color.RedString("%d", d)
	default:
		return "0"
	}
}
