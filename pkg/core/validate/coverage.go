// Package validate gates documents on metric coverage and scores extraction
// confidence.
package validate

import (
	"math"
	"strings"

	"mining_intel/pkg/core/catalog"
)

// DefaultCoverageThreshold is the minimum coverage percentage for a document
// to count as a technical report worth extracting from.
const DefaultCoverageThreshold = 40

// CoverageReport summarizes how many catalog metrics a document mentions.
type CoverageReport struct {
	Valid        bool
	MetricsFound int
	TotalMetrics int
	// Percentage is rounded to the nearest integer.
	Percentage int
	// FoundTerms lists the canonical terms detected, in registry order.
	FoundTerms []string
}

// ScoreCoverage checks the text against every catalog metric. A metric counts
// as present when any of its keywords appears (case-insensitive) or its
// pattern matches. Valid is true when the rounded percentage reaches
// threshold; pass DefaultCoverageThreshold unless configured otherwise.
func ScoreCoverage(text string, threshold int) CoverageReport {
	lowered := strings.ToLower(text)

	report := CoverageReport{TotalMetrics: catalog.Count()}
	for _, m := range catalog.Metrics() {
		found := false
		for _, kw := range m.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found && m.Pattern.MatchString(text) {
			found = true
		}
		if found {
			report.MetricsFound++
			report.FoundTerms = append(report.FoundTerms, m.Canonical)
		}
	}

	if report.TotalMetrics > 0 {
		report.Percentage = int(math.Round(float64(report.MetricsFound) / float64(report.TotalMetrics) * 100))
	}
	report.Valid = report.Percentage >= threshold
	return report
}
