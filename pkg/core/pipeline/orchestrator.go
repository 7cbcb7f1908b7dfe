// Package pipeline orchestrates the full run: locate filings, fetch the
// documents, convert to text, validate coverage, extract metrics, and persist
// the results with their provenance.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"mining_intel/pkg/core/blob"
	"mining_intel/pkg/core/catalog"
	"mining_intel/pkg/core/config"
	"mining_intel/pkg/core/docfetch"
	"mining_intel/pkg/core/extract"
	"mining_intel/pkg/core/filings"
	"mining_intel/pkg/core/store"
	"mining_intel/pkg/core/textconv"
	"mining_intel/pkg/core/validate"
)

// ============================================================================
// COLLABORATOR INTERFACES
// ============================================================================

// DocumentLocator finds candidate filings for a ticker.
type DocumentLocator interface {
	Discover(ctx context.Context, ticker string) ([]filings.Candidate, error)
}

// DocumentFetcher retrieves a filing document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, link string) docfetch.Result
}

// ProjectStore persists extraction results.
type ProjectStore interface {
	Upsert(ctx context.Context, rec *store.ProjectRecord) (string, error)
	InsertHighlights(ctx context.Context, projectID string, highlights []store.Highlight) error
}

// FallbackExtractor fills metric gaps with an AI pass.
type FallbackExtractor interface {
	Extract(ctx context.Context, text, companyName, projectName string) (extract.Result, error)
}

// ============================================================================
// ORCHESTRATOR
// ============================================================================

// Orchestrator drives the end-to-end pipeline for a list of entities.
type Orchestrator struct {
	locator   DocumentLocator
	fetcher   DocumentFetcher
	converter textconv.Converter
	extractor *extract.Extractor
	repo      ProjectStore

	// Optional collaborators.
	fallback FallbackExtractor
	docs     blob.DocumentStore

	CoverageThreshold  int
	FallbackMinMetrics int
	DocsPerEntity      int
	// InterDocDelay spaces out persistence writes between documents.
	InterDocDelay time.Duration
}

// NewOrchestrator wires the required collaborators with default tunables.
func NewOrchestrator(locator DocumentLocator, fetcher DocumentFetcher, converter textconv.Converter, repo ProjectStore) *Orchestrator {
	return &Orchestrator{
		locator:            locator,
		fetcher:            fetcher,
		converter:          converter,
		extractor:          extract.NewExtractor(),
		repo:               repo,
		CoverageThreshold:  validate.DefaultCoverageThreshold,
		FallbackMinMetrics: extract.DefaultFallbackMinMetrics,
		DocsPerEntity:      2,
	}
}

// SetFallback enables the AI gap-filling pass.
func (o *Orchestrator) SetFallback(f FallbackExtractor) {
	o.fallback = f
}

// SetDocumentStore enables archiving of retrieved documents.
func (o *Orchestrator) SetDocumentStore(d blob.DocumentStore) {
	o.docs = d
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	EntitiesProcessed  int
	DocumentsFound     int
	DocumentsProcessed int
	DocumentsMissing   int
	LowCoverage        int
	FallbackUsed       int
	ProjectsSaved      int
	Elapsed            time.Duration
}

func (r *RunReport) String() string {
	return fmt.Sprintf(
		"entities=%d found=%d processed=%d missing=%d low_coverage=%d fallback=%d saved=%d elapsed=%s",
		r.EntitiesProcessed, r.DocumentsFound, r.DocumentsProcessed, r.DocumentsMissing,
		r.LowCoverage, r.FallbackUsed, r.ProjectsSaved, r.Elapsed.Round(time.Millisecond))
}

// Run processes every entity in order. Credential failures against the search
// API abort the whole run; every other per-entity or per-document failure is
// logged and skipped.
func (o *Orchestrator) Run(ctx context.Context, entities []config.Entity) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{}

	for _, ent := range entities {
		fmt.Printf("\n=== %s (%s) ===\n", ent.Name, ent.Ticker)
		report.EntitiesProcessed++

		candidates, err := o.locator.Discover(ctx, ent.Ticker)
		if err != nil {
			if errors.Is(err, filings.ErrUnauthorized) {
				report.Elapsed = time.Since(start)
				return report, fmt.Errorf("run aborted: %w", err)
			}
			log.Printf("Warning: discovery failed for %s: %v. Skipping entity.", ent.Ticker, err)
			continue
		}

		limit := o.DocsPerEntity
		if limit <= 0 || limit > len(candidates) {
			limit = len(candidates)
		}
		report.DocumentsFound += len(candidates)
		fmt.Printf("Found %d candidate filings, processing %d\n", len(candidates), limit)

		for i, cand := range candidates[:limit] {
			if err := o.processDocument(ctx, ent, cand, report); err != nil {
				log.Printf("Warning: document %s for %s failed: %v. Skipping.", cand.DocumentID, ent.Ticker, err)
			}
			if o.InterDocDelay > 0 && i < limit-1 {
				time.Sleep(o.InterDocDelay)
			}
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

func (o *Orchestrator) processDocument(ctx context.Context, ent config.Entity, cand filings.Candidate, report *RunReport) error {
	fmt.Printf("--- %s: %s\n", cand.DocumentID, cand.Headline)

	// Stage 1: fetch.
	res := o.fetcher.Fetch(ctx, cand.Link)
	if res.Missing {
		report.DocumentsMissing++
		log.Printf("Warning: document %s missing: %s. Skipping.", cand.DocumentID, res.Reason)
		return nil
	}

	// Stage 2: archive the raw document before any parsing can fail.
	docURL := cand.Link
	if o.docs != nil {
		key := blob.ObjectKey("technical-reports", ent.Name, cand.DocumentID, extFor(res.Doc.Kind))
		url, err := o.docs.Put(ctx, key, res.Doc.Body, res.Doc.ContentType)
		if err != nil {
			log.Printf("Warning: failed to archive %s: %v. Keeping source link.", cand.DocumentID, err)
		} else {
			docURL = url
		}
	}

	// Stage 3: convert to text.
	extracted, err := o.converter.Convert(ctx, res.Doc)
	if err != nil {
		return fmt.Errorf("text conversion failed: %w", err)
	}
	if !extracted.Complete || strings.TrimSpace(extracted.Text) == "" {
		report.DocumentsMissing++
		log.Printf("Warning: no text recovered from %s (%d pages). Skipping.", cand.DocumentID, extracted.Pages)
		return nil
	}
	report.DocumentsProcessed++

	// Stage 4: coverage gate. Advisory: a weak document still goes through
	// extraction, the flag just travels with the record.
	coverage := validate.ScoreCoverage(extracted.Text, o.CoverageThreshold)
	fmt.Printf("Coverage: %d%% (%d/%d metrics)\n", coverage.Percentage, coverage.MetricsFound, coverage.TotalMetrics)
	if !coverage.Valid {
		report.LowCoverage++
		log.Printf("Warning: %s coverage %d%% below threshold %d%%; extraction continues.",
			cand.DocumentID, coverage.Percentage, o.CoverageThreshold)
	}

	// Stage 5: deterministic extraction, AI fallback on thin results.
	metrics := o.extractor.Extract(extracted.Text)
	if len(metrics) < o.FallbackMinMetrics && o.fallback != nil {
		projectName := projectNameFromHeadline(cand.Headline, ent.Name)
		fmt.Printf("Pattern pass found %d metrics, consulting fallback\n", len(metrics))
		aiMetrics, err := o.fallback.Extract(ctx, extracted.Text, ent.Name, projectName)
		if err != nil {
			log.Printf("Warning: fallback extraction failed for %s: %v. Continuing with pattern results.", cand.DocumentID, err)
		} else {
			filled := extract.Merge(metrics, aiMetrics)
			if filled > 0 {
				report.FallbackUsed++
			}
			fmt.Printf("Fallback filled %d metrics\n", filled)
		}
	}
	if len(metrics) == 0 {
		log.Printf("Skipping %s: no metrics extracted.", cand.DocumentID)
		return nil
	}

	// Stage 6: persist.
	confidence := validate.ExtractionConfidence(metrics)
	rec := store.RecordFromExtraction(
		projectNameFromHeadline(cand.Headline, ent.Name),
		ent.Ticker, ent.Name,
		cand.DocumentID, docURL, cand.FiledAt, cand.Headline,
		metrics, confidence, coverage.Percentage, coverage.Valid,
	)

	projectID, err := o.repo.Upsert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	if highlights := buildHighlights(metrics); len(highlights) > 0 {
		if err := o.repo.InsertHighlights(ctx, projectID, highlights); err != nil {
			log.Printf("Warning: failed to save highlights for %s: %v.", cand.DocumentID, err)
		}
	}

	report.ProjectsSaved++
	fmt.Printf("Saved project %s (confidence %d)\n", projectID, confidence)
	return nil
}

func extFor(kind docfetch.Kind) string {
	if kind == docfetch.KindHTML {
		return "html"
	}
	return "pdf"
}

// buildHighlights emits provenance rows for the headline economics.
func buildHighlights(metrics extract.Result) []store.Highlight {
	type spec struct {
		key      string
		dataType string
		format   func(extract.MetricValue) string
	}
	specs := []spec{
		{catalog.KeyPostTaxNPV, "npv", func(mv extract.MetricValue) string {
			return fmt.Sprintf("$%.0fM", mv.Value)
		}},
		{catalog.KeyIRR, "irr", func(mv extract.MetricValue) string {
			return fmt.Sprintf("%g%%", mv.Value)
		}},
		{catalog.KeyCapex, "capex", func(mv extract.MetricValue) string {
			return fmt.Sprintf("$%.0fM", mv.Value)
		}},
	}

	var out []store.Highlight
	for _, s := range specs {
		mv, ok := metrics[s.key]
		if !ok || mv.Provenance.Quote == "" {
			continue
		}
		out = append(out, store.Highlight{
			DataType: s.dataType,
			Value:    s.format(mv),
			Page:     mv.Provenance.Page,
			Quote:    mv.Provenance.Quote,
		})
	}
	return out
}

var projectNamePattern = regexp.MustCompile(`(?i)\b(?:for|on|at)\s+the\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Project|Mine|Property)\b`)

// projectNameFromHeadline pulls "Coyote Gold" out of headlines like
// "Technical Report for the Coyote Gold Project". Falls back to the company
// name when no project is named.
func projectNameFromHeadline(headline, fallback string) string {
	if m := projectNamePattern.FindStringSubmatch(headline); m != nil {
		return m[1]
	}
	return fallback
}
