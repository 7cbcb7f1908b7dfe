package filings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// ReportKeywords flag headlines that are likely technical report filings.
var ReportKeywords = []string{
	"NI 43-101",
	"technical report",
	"feasibility study",
	"pre-feasibility study",
	"PEA",
	"preliminary economic assessment",
	"resource estimate",
	"reserve estimate",
	"mineral resource",
	"mineral reserve",
}

// DefaultSearchTerms are the queries sent per source. Only the strongest
// three keywords are used as search text to keep request volume down; the
// full keyword list still applies to headline filtering.
var DefaultSearchTerms = []string{"NI 43-101", "technical report", "feasibility study"}

// DefaultSources are the filing venues that carry mining disclosures.
var DefaultSources = []string{"SDR", "SDRP", "EDG", "ASXD", "HKEX", "JSE SENS"}

const (
	// DefaultMinSizeBytes admits large filings whose headline gives nothing
	// away; technical reports are rarely under a couple of megabytes.
	DefaultMinSizeBytes = 2 << 20

	// DefaultPageSize bounds results per query.
	DefaultPageSize = 5

	// DefaultSourceRate is the per-source request rate.
	DefaultSourceRate = rate.Limit(2)
)

// Candidate is a deduplicated filing worth fetching.
type Candidate struct {
	DocumentID string
	Headline   string
	Link       string
	FiledAt    string
	Source     string
	FormTypes  []string
	SizeHint   string
}

// Searcher is the search surface the locator needs; *Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// Locator discovers candidate technical report filings for an entity by
// querying every configured source with every configured term. Requests are
// rate limited per source so one venue's throttling never starves another.
type Locator struct {
	client Searcher

	Terms        []string
	Sources      []string
	StartDate    string
	EndDate      string
	PageSize     int
	MinSizeBytes int64
	SourceRate   rate.Limit

	limiters map[string]*rate.Limiter
}

// NewLocator creates a Locator with the default terms, sources and limits.
func NewLocator(client Searcher) *Locator {
	return &Locator{
		client:       client,
		Terms:        DefaultSearchTerms,
		Sources:      DefaultSources,
		StartDate:    "20200101",
		EndDate:      "20241231",
		PageSize:     DefaultPageSize,
		MinSizeBytes: DefaultMinSizeBytes,
		SourceRate:   DefaultSourceRate,
		limiters:     make(map[string]*rate.Limiter),
	}
}

// Discover searches every source/term combination for the given ticker and
// returns the deduplicated candidates in discovery order. Credential failures
// abort immediately; any other per-query error is logged and skipped.
func (l *Locator) Discover(ctx context.Context, ticker string) ([]Candidate, error) {
	var candidates []Candidate
	seen := make(map[string]bool)

	for _, source := range l.Sources {
		for _, term := range l.Terms {
			if err := l.limiter(source).Wait(ctx); err != nil {
				return candidates, err
			}

			resp, err := l.client.Search(ctx, SearchRequest{
				IDs:             []string{ticker},
				Sources:         []string{source},
				SearchText:      term,
				StartDate:       l.StartDate,
				EndDate:         l.EndDate,
				PaginationLimit: l.PageSize,
				Sort:            "-filingsDateTime",
			})
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					return nil, fmt.Errorf("aborting discovery for %s: %w", ticker, err)
				}
				log.Printf("Warning: search failed for %s on %s (%q): %v. Skipping.", ticker, source, term, err)
				continue
			}

			for _, entry := range resp.Data {
				for _, doc := range entry.Documents {
					if doc.DocumentID == "" || seen[doc.DocumentID] {
						continue
					}
					if !l.admit(doc) {
						continue
					}
					seen[doc.DocumentID] = true
					candidates = append(candidates, Candidate{
						DocumentID: doc.DocumentID,
						Headline:   doc.Headline,
						Link:       doc.FilingsLink,
						FiledAt:    doc.FilingsDateTime,
						Source:     doc.Source,
						FormTypes:  doc.FormTypes,
						SizeHint:   doc.FilingSize,
					})
				}
			}
		}
	}

	return candidates, nil
}

// admit keeps documents whose headline matches a report keyword, or which
// are large enough that the headline alone cannot rule them out.
func (l *Locator) admit(doc SearchDocument) bool {
	headline := strings.ToLower(doc.Headline)
	for _, kw := range ReportKeywords {
		if strings.Contains(headline, strings.ToLower(kw)) {
			return true
		}
	}
	return sizeAtLeast(doc.FilingSize, l.MinSizeBytes)
}

func (l *Locator) limiter(source string) *rate.Limiter {
	lim, ok := l.limiters[source]
	if !ok {
		lim = rate.NewLimiter(l.SourceRate, 1)
		l.limiters[source] = lim
	}
	return lim
}

// sizeAtLeast parses size hints like "2.4 MB" or "980 KB". Unparseable
// megabyte-or-larger hints are admitted; anything else is rejected.
func sizeAtLeast(hint string, min int64) bool {
	if hint == "" || min <= 0 {
		return false
	}
	fields := strings.Fields(strings.TrimSpace(hint))

	var num, unit string
	switch len(fields) {
	case 1:
		// "2.4MB"
		trimmed := fields[0]
		cut := len(trimmed)
		for cut > 0 && !isDigit(trimmed[cut-1]) && trimmed[cut-1] != '.' {
			cut--
		}
		num, unit = trimmed[:cut], trimmed[cut:]
	case 2:
		num, unit = fields[0], fields[1]
	default:
		return false
	}

	var scale float64
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "GB":
		scale = 1 << 30
	case "MB":
		scale = 1 << 20
	case "KB":
		scale = 1 << 10
	case "B", "":
		scale = 1
	default:
		return false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		// "large MB attachment" style hints: trust the unit.
		return scale >= 1<<20
	}
	return int64(v*scale) >= min
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
