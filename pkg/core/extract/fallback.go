package extract

import (
	"context"
	"fmt"
	"strings"

	"mining_intel/pkg/core/catalog"
	"mining_intel/pkg/core/llm"
	"mining_intel/pkg/core/utils"
)

const (
	// DefaultFallbackMinMetrics is the deterministic-pass result size below
	// which the AI fallback is consulted.
	DefaultFallbackMinMetrics = 3

	// fallbackTextLimit bounds the document prefix sent to the model.
	fallbackTextLimit = 30000
)

const fallbackSystemPrompt = "You are a mining industry analyst. Extract key financial and technical metrics " +
	"from mining technical reports. Return only the JSON object with numeric values where applicable."

// aiField maps one model output field to a result key.
type aiField struct {
	name    string
	key     string
	unit    string
	textual bool
}

var aiFields = []aiField{
	{name: "npv", key: catalog.KeyPostTaxNPV, unit: "USD millions"},
	{name: "irr", key: catalog.KeyIRR, unit: "percent"},
	{name: "capex", key: catalog.KeyCapex, unit: "USD millions"},
	{name: "opex", key: catalog.KeyOpex, unit: "USD/tonne"},
	{name: "aisc", key: catalog.KeyAISC, unit: "USD/unit"},
	{name: "mineLife", key: catalog.KeyMineLife, unit: "years"},
	{name: "annualProduction", key: catalog.KeyAnnualProduction, unit: "tonnes", textual: true},
	{name: "resource", key: catalog.KeyTotalResource, unit: "tonnes", textual: true},
	{name: "reserve", key: catalog.KeyReserve, unit: "tonnes", textual: true},
	{name: "grade", key: catalog.KeyResourceGrade, unit: "varies", textual: true},
	{name: "recovery", key: catalog.KeyRecovery, unit: "percent"},
	{name: "throughput", key: catalog.KeyThroughput, unit: "tpd or Mtpa", textual: true},
	{name: "paybackPeriod", key: catalog.KeyPayback, unit: "years"},
	{name: "ownership", key: catalog.KeyOwnership, unit: "percent"},
}

// AIExtractor asks an LLM for the metrics the pattern pass missed.
type AIExtractor struct {
	provider llm.Provider
}

// NewAIExtractor wraps the given provider.
func NewAIExtractor(provider llm.Provider) *AIExtractor {
	return &AIExtractor{provider: provider}
}

// Extract sends a bounded prefix of the document to the model and parses the
// returned JSON object into a Result. Values carry Source "ai_fallback" and
// no page/quote provenance.
func (a *AIExtractor) Extract(ctx context.Context, text, companyName, projectName string) (Result, error) {
	if len(text) > fallbackTextLimit {
		text = text[:fallbackTextLimit]
	}

	prompt := fmt.Sprintf(`Extract mining project metrics from this technical report for %s - %s:

%s

Return a JSON object with these fields (use null if not found):
- npv: Post-tax Net Present Value in USD millions
- irr: Internal Rate of Return as percentage
- capex: Initial Capital Expenditure in USD millions
- opex: Operating Cost per tonne in USD
- aisc: All-in Sustaining Cost per unit in USD
- mineLife: Mine life in years
- annualProduction: Annual production with units
- resource: Total resource with units
- reserve: Total reserve with units
- grade: Average grade with units
- recovery: Recovery rate as percentage
- throughput: Processing throughput with units
- paybackPeriod: Payback period in years
- ownership: Ownership percentage`, companyName, projectName, text)

	raw, err := a.provider.GenerateResponse(ctx, prompt, fallbackSystemPrompt, map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("fallback extraction failed: %w", err)
	}

	obj, err := utils.DecodeModelObject(raw)
	if err != nil {
		return nil, fmt.Errorf("fallback output unparseable: %w", err)
	}

	result := make(Result)
	for _, f := range aiFields {
		v, ok := obj[f.name]
		if !ok || v == nil {
			continue
		}

		mv := MetricValue{
			Canonical:  canonicalFor(f.key),
			Unit:       f.unit,
			Provenance: Provenance{Source: "ai_fallback"},
		}

		if f.textual {
			s, ok := asText(v)
			if !ok {
				continue
			}
			mv.Text = s
			if n, numeric := ParseNumeral(firstField(s)); numeric {
				mv.Value = n
			}
		} else {
			n, ok := asNumber(v)
			if !ok {
				continue
			}
			mv.Value = n
		}

		result[f.key] = mv
	}

	return result, nil
}

// Merge copies values from src into dst for keys dst does not already hold.
// Deterministic pattern matches always win over fallback values. Returns the
// number of keys filled.
func Merge(dst, src Result) int {
	filled := 0
	for key, mv := range src {
		if _, exists := dst[key]; exists {
			continue
		}
		dst[key] = mv
		filled++
	}
	return filled
}

func canonicalFor(key string) string {
	if m, ok := catalog.ByResultKey(key); ok {
		return m.Canonical
	}
	if key == catalog.KeyOwnership {
		return "Ownership"
	}
	return key
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		return ParseNumeral(n)
	default:
		return 0, false
	}
}

func asText(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		trimmed := strings.TrimSpace(s)
		return trimmed, trimmed != ""
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%g", s)), true
	default:
		return "", false
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
