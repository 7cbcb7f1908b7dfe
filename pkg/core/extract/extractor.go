// Package extract pulls financial and technical metrics out of technical
// report text. The deterministic pass runs the catalog patterns over the
// text; an optional AI pass fills gaps when too few metrics were found.
package extract

import (
	"fmt"
	"strings"

	"mining_intel/pkg/core/catalog"
)

// Provenance records where a value was taken from.
type Provenance struct {
	// Quote is the matched text, trimmed for storage.
	Quote string `json:"quote,omitempty"`
	// Page is the 1-based page the match fell on, 0 if unknown.
	Page int `json:"page,omitempty"`
	// Source is "pattern" or "ai_fallback".
	Source string `json:"source"`
}

// MetricValue is one extracted metric.
type MetricValue struct {
	Canonical string `json:"canonical_term"`
	// Value holds the normalized numeric value; meaningless when Text is set
	// and Value is zero.
	Value float64 `json:"value"`
	// Text holds the display form for qualified or non-numeric metrics,
	// e.g. "Measured and Indicated 120.50 Mt" or "feasibility".
	Text       string     `json:"text,omitempty"`
	Unit       string     `json:"unit"`
	Provenance Provenance `json:"provenance"`
}

// Result maps result keys (catalog.Key*) to extracted values.
type Result map[string]MetricValue

// MatchPolicy decides which of several pattern matches wins.
type MatchPolicy int

const (
	// FirstMatch takes the first occurrence in document order. Technical
	// report summaries lead with the headline economics, so the first hit
	// is usually the one analysts quote.
	FirstMatch MatchPolicy = iota
)

const maxQuoteLen = 200

// Extractor runs the deterministic catalog pass.
type Extractor struct {
	Policy MatchPolicy
}

// NewExtractor returns an Extractor with the default match policy.
func NewExtractor() *Extractor {
	return &Extractor{Policy: FirstMatch}
}

// Extract runs every catalog pattern over text and returns the normalized
// values. Matches that fail numeric parsing are dropped, never zero-filled.
// Extraction is pure: the same text always yields the same result.
func (e *Extractor) Extract(text string) Result {
	result := make(Result)

	for i := range catalog.Metrics() {
		m := &catalog.Metrics()[i]
		loc := m.Pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		mv, ok := normalizeMatch(m, text, loc)
		if !ok {
			continue
		}
		result[m.ResultKey] = mv
	}

	return result
}

// normalizeMatch converts a raw submatch into a MetricValue according to the
// metric's kind.
func normalizeMatch(m *catalog.Metric, text string, loc []int) (MetricValue, bool) {
	group := func(n int) string {
		if n == 0 || 2*n+1 >= len(loc) || loc[2*n] < 0 {
			return ""
		}
		return text[loc[2*n]:loc[2*n+1]]
	}

	mv := MetricValue{
		Canonical: m.Canonical,
		Unit:      m.Unit,
		Provenance: Provenance{
			Quote:  clipQuote(text[loc[0]:loc[1]]),
			Page:   pageOf(text, loc[0]),
			Source: "pattern",
		},
	}

	raw := group(m.NumGroup)
	unit := group(m.UnitGroup)
	qualifier := strings.TrimSpace(group(m.QualGroup))

	switch m.Kind {
	case catalog.KindCurrency:
		v, ok := ParseNumeral(raw)
		if !ok {
			return mv, false
		}
		mv.Value = ScaleToMillions(v, unit)

	case catalog.KindPercent, catalog.KindYears, catalog.KindPerUnit:
		v, ok := ParseNumeral(raw)
		if !ok {
			return mv, false
		}
		mv.Value = v
		if m.Kind == catalog.KindPerUnit && unit != "" {
			mv.Unit = "USD/" + CanonicalUnitToken(unit)
		}

	case catalog.KindMassTonnes:
		v, ok := ParseNumeral(raw)
		if !ok {
			return mv, false
		}
		mv.Value = ScaleToTonnes(v, unit)
		if qualifier != "" {
			mv.Text = fmt.Sprintf("%s %s %s", TitleCase(qualifier), raw, CanonicalUnitToken(unit))
		}

	case catalog.KindGrade:
		v, ok := ParseNumeral(raw)
		if !ok {
			return mv, false
		}
		mv.Value = v
		mv.Unit = unit

	case catalog.KindRate:
		v, ok := ParseNumeral(raw)
		if !ok {
			return mv, false
		}
		mv.Value = v
		mv.Unit = CanonicalUnitToken(unit)

	case catalog.KindStage:
		stage, ok := NormalizeStage(raw)
		if !ok {
			return mv, false
		}
		mv.Text = stage

	case catalog.KindText:
		token := strings.TrimSpace(raw)
		if token == "" {
			return mv, false
		}
		mv.Text = token

	default:
		return mv, false
	}

	return mv, true
}

// pageOf counts form feeds before offset; text converters emit one per page.
func pageOf(text string, offset int) int {
	return strings.Count(text[:offset], "\f") + 1
}

func clipQuote(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > maxQuoteLen {
		q = q[:maxQuoteLen]
	}
	return q
}
