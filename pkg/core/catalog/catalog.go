// Package catalog is the registry of metrics extracted from mining technical
// reports. Each entry carries the keywords used for coverage checks and the
// compiled pattern used for deterministic extraction, so validation and
// extraction can never drift apart.
package catalog

import "regexp"

// ValueKind tells the extractor how to normalize a pattern match.
type ValueKind int

const (
	KindCurrency   ValueKind = iota // USD figure, normalized to millions
	KindPercent                     // plain percentage
	KindYears                       // duration in years
	KindPerUnit                     // USD per tonne/ounce/pound
	KindMassTonnes                  // mass, normalized to tonnes
	KindGrade                       // grade with its unit (g/t, %, ppm)
	KindRate                        // processing rate (tpd, Mtpa)
	KindStage                       // project stage vocabulary
	KindText                        // verbatim token (reporting codes)
)

// Result keys for extracted metrics. These are the stable storage names.
const (
	KeyPostTaxNPV       = "post_tax_npv_usd_m"
	KeyPreTaxNPV        = "pre_tax_npv_usd_m"
	KeyIRR              = "irr_percent"
	KeyPreTaxIRR        = "pre_tax_irr_percent"
	KeyPayback          = "payback_years"
	KeyCapex            = "capex_usd_m"
	KeySustainingCapex  = "sustaining_capex_usd_m"
	KeyOpex             = "opex_usd_per_tonne"
	KeyAISC             = "aisc_usd_per_tonne"
	KeyCashCost         = "cash_cost_usd_per_unit"
	KeyMineLife         = "mine_life_years"
	KeyAnnualProduction = "annual_production_tonnes"
	KeyThroughput       = "processing_throughput"
	KeyTotalResource    = "total_resource_tonnes"
	KeyResourceGrade    = "resource_grade"
	KeyReserve          = "total_reserve_tonnes"
	KeyRecovery         = "recovery_percent"
	KeyStage            = "stage"
	KeyReportingCode    = "reporting_code"

	// KeyOwnership has no pattern; it only arrives via the AI fallback.
	KeyOwnership = "ownership_percent"
)

// Metric is one registry entry.
type Metric struct {
	Category  string
	Field     string
	Canonical string
	// Keywords flag the metric as mentioned during coverage checks
	// (case-insensitive substring match).
	Keywords []string
	// Pattern extracts the value. Submatch group indices below say which
	// capture holds what; 0 means the pattern has no such group.
	Pattern   *regexp.Regexp
	Unit      string
	ResultKey string
	Kind      ValueKind
	NumGroup  int
	UnitGroup int
	QualGroup int
}

// Currency and mass unit tokens. Longer alternatives come first: Go's regexp
// takes the leftmost-first alternative, so "M" before "MM" would never let
// "MM" match.
const (
	curUnits  = `(million|billion|MM|M|B)`
	massUnits = `(Mt|million\s*tonnes|kt|tonnes|t)`
	numRe     = `([\d,]+(?:\.\d+)?)`
)

var metrics = []Metric{
	{
		Category:  "economics",
		Field:     "post_tax_npv",
		Canonical: "Post-tax NPV",
		Keywords:  []string{"post-tax npv", "after-tax npv"},
		Pattern:   regexp.MustCompile(`(?i)(?:post[\s-]?tax|after[\s-]?tax)\s*NPV[^\d]*` + numRe + `\s*` + curUnits + `\b`),
		Unit:      "USD millions",
		ResultKey: KeyPostTaxNPV,
		Kind:      KindCurrency,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "economics",
		Field:     "pre_tax_npv",
		Canonical: "Pre-tax NPV",
		Keywords:  []string{"pre-tax npv"},
		Pattern:   regexp.MustCompile(`(?i)pre[\s-]?tax\s*NPV[^\d]*` + numRe + `\s*` + curUnits + `\b`),
		Unit:      "USD millions",
		ResultKey: KeyPreTaxNPV,
		Kind:      KindCurrency,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "economics",
		Field:     "irr",
		Canonical: "IRR",
		Keywords:  []string{"irr", "internal rate of return"},
		Pattern:   regexp.MustCompile(`(?i)(?:(?:post[\s-]?tax|after[\s-]?tax)\s*)?\bIRR\b[^\d%]*([\d.]+)\s*%`),
		Unit:      "percent",
		ResultKey: KeyIRR,
		Kind:      KindPercent,
		NumGroup:  1,
	},
	{
		Category:  "economics",
		Field:     "pre_tax_irr",
		Canonical: "Pre-tax IRR",
		Keywords:  []string{"pre-tax irr"},
		Pattern:   regexp.MustCompile(`(?i)pre[\s-]?tax\s*IRR\b[^\d%]*([\d.]+)\s*%`),
		Unit:      "percent",
		ResultKey: KeyPreTaxIRR,
		Kind:      KindPercent,
		NumGroup:  1,
	},
	{
		Category:  "economics",
		Field:     "payback",
		Canonical: "Payback Period",
		Keywords:  []string{"payback"},
		Pattern:   regexp.MustCompile(`(?i)payback(?:\s*period)?[^\d]*([\d.]+)\s*(?:years|yrs)\b`),
		Unit:      "years",
		ResultKey: KeyPayback,
		Kind:      KindYears,
		NumGroup:  1,
	},
	{
		Category:  "costs",
		Field:     "capex",
		Canonical: "Initial Capital Cost",
		Keywords:  []string{"initial capital", "capex", "capital expenditure"},
		Pattern:   regexp.MustCompile(`(?i)(?:initial|pre[\s-]?production|upfront)\s*(?:capital(?:\s*(?:cost|expenditure))?|capex)[^\d]*` + numRe + `\s*` + curUnits + `\b`),
		Unit:      "USD millions",
		ResultKey: KeyCapex,
		Kind:      KindCurrency,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "costs",
		Field:     "sustaining_capex",
		Canonical: "Sustaining Capital",
		Keywords:  []string{"sustaining capital", "sustaining capex"},
		Pattern:   regexp.MustCompile(`(?i)sustaining\s*(?:capital(?:\s*(?:cost|expenditure))?|capex)[^\d]*` + numRe + `\s*` + curUnits + `\b`),
		Unit:      "USD millions",
		ResultKey: KeySustainingCapex,
		Kind:      KindCurrency,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "costs",
		Field:     "opex",
		Canonical: "Operating Cost",
		Keywords:  []string{"operating cost", "opex"},
		Pattern:   regexp.MustCompile(`(?i)(?:operating\s*cost|opex)[^\d]*` + numRe + `\s*(?:per|/)\s*(tonne|t)\b`),
		Unit:      "USD/tonne",
		ResultKey: KeyOpex,
		Kind:      KindPerUnit,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "costs",
		Field:     "aisc",
		Canonical: "All-in Sustaining Cost",
		Keywords:  []string{"all-in sustaining", "aisc"},
		Pattern:   regexp.MustCompile(`(?i)(?:all[\s-]?in\s*sustaining\s*cost|AISC)[^\d]*` + numRe + `\s*(?:per|/)\s*(ounce|oz|tonne|t|pound|lb)\b`),
		Unit:      "USD/tonne",
		ResultKey: KeyAISC,
		Kind:      KindPerUnit,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "costs",
		Field:     "cash_cost",
		Canonical: "Cash Cost",
		Keywords:  []string{"cash cost"},
		Pattern:   regexp.MustCompile(`(?i)cash\s*cost[^\d]*` + numRe + `\s*(?:per|/)\s*(ounce|oz|tonne|t|pound|lb)\b`),
		Unit:      "USD/unit",
		ResultKey: KeyCashCost,
		Kind:      KindPerUnit,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "production",
		Field:     "mine_life",
		Canonical: "Mine Life",
		Keywords:  []string{"mine life", "life of mine"},
		Pattern:   regexp.MustCompile(`(?i)(?:mine|project)\s*life[^\d]*([\d.]+)\s*(?:years|yrs)\b`),
		Unit:      "years",
		ResultKey: KeyMineLife,
		Kind:      KindYears,
		NumGroup:  1,
	},
	{
		Category:  "production",
		Field:     "annual_production",
		Canonical: "Annual Production",
		Keywords:  []string{"annual production"},
		Pattern:   regexp.MustCompile(`(?i)annual\s*production[^\d]*` + numRe + `\s*` + massUnits + `\b`),
		Unit:      "tonnes",
		ResultKey: KeyAnnualProduction,
		Kind:      KindMassTonnes,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "production",
		Field:     "throughput",
		Canonical: "Processing Throughput",
		Keywords:  []string{"throughput"},
		Pattern:   regexp.MustCompile(`(?i)throughput[^\d]*` + numRe + `\s*(Mtpa|ktpd|tpd|t/d|tonnes\s*per\s*day)\b`),
		Unit:      "",
		ResultKey: KeyThroughput,
		Kind:      KindRate,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "resources",
		Field:     "total_resource",
		Canonical: "Mineral Resources",
		Keywords:  []string{"mineral resource", "measured and indicated", "inferred resource"},
		Pattern:   regexp.MustCompile(`(?i)((?:measured(?:\s*(?:and|&)\s*indicated)?|indicated|inferred|total|mineral)\s*)resources?[^\d]*` + numRe + `\s*` + massUnits + `\b`),
		Unit:      "tonnes",
		ResultKey: KeyTotalResource,
		Kind:      KindMassTonnes,
		NumGroup:  2,
		UnitGroup: 3,
		QualGroup: 1,
	},
	{
		Category:  "resources",
		Field:     "resource_grade",
		Canonical: "Average Grade",
		Keywords:  []string{"average grade", "grade of"},
		Pattern:   regexp.MustCompile(`(?i)grade\s*of[^\d]*([\d.]+)\s*(g/t|oz/t|opt|ppm|%)`),
		Unit:      "",
		ResultKey: KeyResourceGrade,
		Kind:      KindGrade,
		NumGroup:  1,
		UnitGroup: 2,
	},
	{
		Category:  "resources",
		Field:     "reserve",
		Canonical: "Mineral Reserves",
		Keywords:  []string{"mineral reserve", "proven and probable", "ore reserve"},
		Pattern:   regexp.MustCompile(`(?i)((?:proven(?:\s*(?:and|&)\s*probable)?|probable|total|mineral|ore)\s*)reserves?[^\d]*` + numRe + `\s*` + massUnits + `\b`),
		Unit:      "tonnes",
		ResultKey: KeyReserve,
		Kind:      KindMassTonnes,
		NumGroup:  2,
		UnitGroup: 3,
		QualGroup: 1,
	},
	{
		Category:  "resources",
		Field:     "recovery",
		Canonical: "Metallurgical Recovery",
		Keywords:  []string{"recovery", "recoveries"},
		Pattern:   regexp.MustCompile(`(?i)recover(?:y|ies)[^\d%]*([\d.]+)\s*%`),
		Unit:      "percent",
		ResultKey: KeyRecovery,
		Kind:      KindPercent,
		NumGroup:  1,
	},
	{
		Category:  "classification",
		Field:     "stage",
		Canonical: "Project Stage",
		Keywords:  []string{"feasibility study", "preliminary economic assessment"},
		Pattern:   regexp.MustCompile(`(?i)\b(preliminary\s*economic\s*assessment|pre[\s-]?feasibility|feasibility|exploration|construction|production|PEA|PFS|DFS|BFS)\b`),
		Unit:      "",
		ResultKey: KeyStage,
		Kind:      KindStage,
		NumGroup:  1,
	},
	{
		Category:  "classification",
		Field:     "reporting_code",
		Canonical: "Reporting Code",
		Keywords:  []string{"ni 43-101", "jorc", "samrec"},
		Pattern:   regexp.MustCompile(`(?i)\b(NI\s*43[\s-]?101|JORC|SAMREC|S-K\s*1300)\b`),
		Unit:      "",
		ResultKey: KeyReportingCode,
		Kind:      KindText,
		NumGroup:  1,
	},
}

var byKey = func() map[string]*Metric {
	m := make(map[string]*Metric, len(metrics))
	for i := range metrics {
		m[metrics[i].ResultKey] = &metrics[i]
	}
	return m
}()

// Metrics returns the full registry in declaration order.
func Metrics() []Metric {
	return metrics
}

// Count returns the number of registered metrics.
func Count() int {
	return len(metrics)
}

// ByResultKey looks a metric up by its result key.
func ByResultKey(key string) (*Metric, bool) {
	m, ok := byKey[key]
	return m, ok
}
