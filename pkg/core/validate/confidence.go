package validate

import (
	"math"

	"mining_intel/pkg/core/catalog"
	"mining_intel/pkg/core/extract"
)

// Critical metrics carry 60 points of confidence between them; the bonus set
// carries the remaining 40. Presence is what counts, not magnitude.
var (
	criticalKeys = []string{
		catalog.KeyPostTaxNPV,
		catalog.KeyCapex,
		catalog.KeyIRR,
		catalog.KeyMineLife,
		catalog.KeyAnnualProduction,
	}
	bonusKeys = []string{
		catalog.KeyPreTaxNPV,
		catalog.KeySustainingCapex,
		catalog.KeyPayback,
		catalog.KeyTotalResource,
		catalog.KeyResourceGrade,
		catalog.KeyOpex,
		catalog.KeyAISC,
	}
)

// ExtractionConfidence scores a merged extraction result from 0 to 100.
// Each critical metric present is worth 60/5 points, each bonus metric 40/7.
// The final score is rounded and clamped to 100.
func ExtractionConfidence(metrics extract.Result) int {
	found := 0
	for _, key := range criticalKeys {
		if _, ok := metrics[key]; ok {
			found++
		}
	}
	confidence := float64(found) / float64(len(criticalKeys)) * 60

	bonus := 0
	for _, key := range bonusKeys {
		if _, ok := metrics[key]; ok {
			bonus++
		}
	}
	confidence += float64(bonus) / float64(len(bonusKeys)) * 40

	score := int(math.Round(confidence))
	if score > 100 {
		score = 100
	}
	return score
}
