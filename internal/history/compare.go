package history

// ComparisonRow pits one scoring category of a current entry against a
// previous one.
type ComparisonRow struct {
	Category string `json:"category"`
	Current  int    `json:"current"`
	Previous int    `json:"previous"`
}

// Compare builds the fixed category rows for two reconciled entries
// picked by date. Empty date arguments default to the two most recent
// entries, and a date with no entry contributes zeros rather than an
// error, so a page scanned only once still renders a chart.
func Compare(entries []Entry, currentDate, previousDate string) []ComparisonRow {
	if currentDate == "" && len(entries) > 0 {
		currentDate = entries[0].Date
	}
	if previousDate == "" && len(entries) > 1 {
		previousDate = entries[1].Date
	}

	current := findByDate(entries, currentDate)
	previous := findByDate(entries, previousDate)

	return []ComparisonRow{
		{Category: "Accessibility", Current: current.AccessibilityScore, Previous: previous.AccessibilityScore},
		{Category: "Performance", Current: current.PerformanceScore, Previous: previous.PerformanceScore},
		{Category: "SEO", Current: current.SEOScore, Previous: previous.SEOScore},
		{Category: "Best Practices", Current: current.BestPracticesScore, Previous: previous.BestPracticesScore},
		{Category: "Issues", Current: current.Issues, Previous: previous.Issues},
	}
}

func findByDate(entries []Entry, date string) Entry {
	if date == "" {
		return Entry{}
	}
	for _, e := range entries {
		if e.Date == date {
			return e
		}
	}
	return Entry{}
}
