package extract

import (
	"strconv"
	"strings"
)

// ParseNumeral parses a numeric token as it appears in report text:
// "1,234.5", "$450", "US$ 300". Currency symbols, commas and spaces are
// stripped before parsing. Parenthesized values are treated as negative
// (accounting convention).
func ParseNumeral(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "US", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ScaleToMillions converts a currency figure to USD millions based on its
// unit token. Billion-scale tokens multiply by 1000; million-scale tokens
// pass through.
func ScaleToMillions(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "b", "billion", "billions", "bn":
		return v * 1000
	default:
		return v
	}
}

// ScaleToTonnes converts a mass figure to tonnes based on its unit token.
// Mt and "million tonnes" multiply by 1,000,000; kt by 1,000; anything else
// is taken at face value.
func ScaleToTonnes(v float64, unit string) float64 {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.Join(strings.Fields(u), " ")
	switch {
	case u == "mt" || u == "mtpa" || strings.HasPrefix(u, "million"):
		return v * 1_000_000
	case u == "kt" || u == "ktpa":
		return v * 1000
	default:
		return v
	}
}

// CanonicalUnitToken collapses unit spelling variants to a short form.
func CanonicalUnitToken(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.Join(strings.Fields(u), " ")
	switch u {
	case "tonne", "tonnes", "ton", "tons", "t":
		return "tonne"
	case "ounce", "ounces", "oz":
		return "oz"
	case "lb", "lbs", "pound", "pounds":
		return "lb"
	case "t/d", "tonnes/day", "tonnes per day", "tonne/day", "tonne per day":
		return "tpd"
	case "mtpa":
		return "Mtpa"
	case "mt":
		return "Mt"
	case "ktpd":
		return "ktpd"
	case "tpd":
		return "tpd"
	default:
		return unit
	}
}

// NormalizeStage maps a matched stage token to the storage vocabulary.
func NormalizeStage(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), " ")
	switch {
	case strings.Contains(s, "exploration"):
		return "exploration", true
	case s == "pea" || strings.Contains(s, "preliminary"):
		return "pea", true
	case s == "pfs" || strings.Contains(s, "pre-feasibility") || strings.Contains(s, "pre feasibility") || strings.Contains(s, "prefeasibility"):
		return "pre_feasibility", true
	case s == "dfs" || s == "bfs" || strings.Contains(s, "feasibility"):
		return "feasibility", true
	case strings.Contains(s, "construction"):
		return "construction", true
	case strings.Contains(s, "production"):
		return "production", true
	default:
		return "", false
	}
}

// TitleCase uppercases the first letter of each space-separated word. Used
// for qualifier display ("measured and indicated" -> "Measured And Indicated"
// is wrong, so small connector words stay lower).
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if i > 0 && (w == "and" || w == "or" || w == "of" || w == "&") {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
