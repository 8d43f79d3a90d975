// Package history folds raw scan records into per-day entries and builds
// the comparison view the dashboard renders.
package history

import (
	"sort"
	"time"

	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/urlutil"
)

// Entry is one reconciled history row: the best scores observed for one
// URL on one UTC calendar day.
type Entry struct {
	ID                 string    `json:"id"`
	URL                string    `json:"url"`
	Date               string    `json:"date"`
	AccessibilityScore int       `json:"accessibilityScore"`
	PerformanceScore   int       `json:"performanceScore"`
	SEOScore           int       `json:"seoScore"`
	BestPracticesScore int       `json:"bestPracticesScore"`
	Issues             int       `json:"issues"`
	LastScanned        time.Time `json:"lastScanned"`
}

// dateLayout keys entries by UTC calendar day.
const dateLayout = "2006-01-02"

// Reconcile folds records into one Entry per (canonical url, UTC date),
// newest first. Several scans of the same page on the same day collapse
// into a single row carrying the element-wise maximum of every numeric
// field. The merge is commutative, so input order only decides which
// record id the row keeps (the most recent scan's).
func Reconcile(records []*model.TestRecord) []Entry {
	type key struct {
		url  string
		date string
	}

	merged := map[key]*Entry{}
	order := []key{}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		e := entryFrom(rec)
		k := key{url: urlutil.Canonical(rec.URL), date: e.Date}

		prev, ok := merged[k]
		if !ok {
			merged[k] = &e
			order = append(order, k)
			continue
		}
		mergeMax(prev, &e)
	}

	out := make([]Entry, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}

	// Most recent day first. Ties keep store order, which is already
	// most-recent-first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

func entryFrom(rec *model.TestRecord) Entry {
	e := Entry{
		ID:          rec.ID,
		URL:         rec.URL,
		Date:        rec.CreatedAt.UTC().Format(dateLayout),
		LastScanned: rec.CreatedAt.UTC(),
	}
	if s := rec.AccessibilitySummary; s != nil {
		e.AccessibilityScore = s.Score
		e.Issues = s.Violations
	}
	if sc := rec.PerformanceScores; sc != nil {
		e.PerformanceScore = sc.Performance
		e.SEOScore = sc.SEO
		e.BestPracticesScore = sc.BestPractices
	}
	return e
}

// mergeMax folds next into acc field by field. Identity and timestamp
// follow the most recent scan; every score and the issue count take the
// larger value.
func mergeMax(acc, next *Entry) {
	if next.LastScanned.After(acc.LastScanned) {
		acc.ID = next.ID
		acc.URL = next.URL
		acc.LastScanned = next.LastScanned
	}
	acc.AccessibilityScore = max(acc.AccessibilityScore, next.AccessibilityScore)
	acc.PerformanceScore = max(acc.PerformanceScore, next.PerformanceScore)
	acc.SEOScore = max(acc.SEOScore, next.SEOScore)
	acc.BestPracticesScore = max(acc.BestPracticesScore, next.BestPracticesScore)
	acc.Issues = max(acc.Issues, next.Issues)
}
