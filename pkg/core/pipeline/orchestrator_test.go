package pipeline

import (
	"context"
	"fmt"
	"testing"

	"mining_intel/pkg/core/catalog"
	"mining_intel/pkg/core/config"
	"mining_intel/pkg/core/docfetch"
	"mining_intel/pkg/core/extract"
	"mining_intel/pkg/core/filings"
	"mining_intel/pkg/core/store"
	"mining_intel/pkg/core/textconv"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeLocator struct {
	candidates []filings.Candidate
	err        error
	calls      int
}

func (f *fakeLocator) Discover(ctx context.Context, ticker string) ([]filings.Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

type fakeFetcher struct {
	result docfetch.Result
}

func (f *fakeFetcher) Fetch(ctx context.Context, link string) docfetch.Result {
	return f.result
}

type fakeConverter struct {
	text string
}

func (f *fakeConverter) Convert(ctx context.Context, doc *docfetch.Document) (*textconv.Extracted, error) {
	return &textconv.Extracted{Text: f.text, Pages: 1, Complete: true}, nil
}

type fakeRepo struct {
	records    []*store.ProjectRecord
	highlights map[string][]store.Highlight
}

func (f *fakeRepo) Upsert(ctx context.Context, rec *store.ProjectRecord) (string, error) {
	f.records = append(f.records, rec)
	return fmt.Sprintf("proj-%d", len(f.records)), nil
}

func (f *fakeRepo) InsertHighlights(ctx context.Context, projectID string, hs []store.Highlight) error {
	if f.highlights == nil {
		f.highlights = make(map[string][]store.Highlight)
	}
	f.highlights[projectID] = hs
	return nil
}

type fakeFallback struct {
	result extract.Result
	called bool
}

func (f *fakeFallback) Extract(ctx context.Context, text, companyName, projectName string) (extract.Result, error) {
	f.called = true
	return f.result, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

var testEntity = config.Entity{Ticker: "CGC-CA", Name: "Coyote Gold Corp", Commodity: "gold"}

var testCandidate = filings.Candidate{
	DocumentID: "DOC-1",
	Headline:   "NI 43-101 Technical Report for the Coyote Gold Project",
	Link:       "https://filings.example.com/DOC-1",
	FiledAt:    "2024-03-15T12:00:00Z",
}

const richReportText = `
This technical report, prepared in accordance with NI 43-101, presents the
results of the feasibility study. The post-tax NPV is $450 million with an
IRR of 22% and a payback of 2.8 years. Initial capital is estimated at $300
million. The mine life is 12 years with annual production of 50,000 tonnes.
Mineral resources total 120.5 Mt at an average grade of 1.45 g/t.
`

// Mentions enough metric terms to pass coverage, but carries almost no
// extractable figures, so the pattern pass comes up thin.
const vagueReportText = `
The report discusses the post-tax NPV, payback, initial capital, mine life,
annual production, average grade and sustaining capital of the project. The
base case assumes an IRR of 22%; all other figures are tabulated in
appendices that were not included in this filing.
`

func pdfResult() docfetch.Result {
	return docfetch.Result{Doc: &docfetch.Document{
		Body: []byte("%PDF-1.4 fake"), ContentType: "application/pdf",
		Kind: docfetch.KindPDF, SourceURL: testCandidate.Link,
	}}
}

// ============================================================================
// TESTS
// ============================================================================

func TestRunHappyPath(t *testing.T) {
	repo := &fakeRepo{}
	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: pdfResult()},
		&fakeConverter{text: richReportText},
		repo,
	)

	report, err := o.Run(context.Background(), []config.Entity{testEntity})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.EntitiesProcessed != 1 || report.DocumentsFound != 1 ||
		report.DocumentsProcessed != 1 || report.ProjectsSaved != 1 {
		t.Errorf("unexpected counters: %s", report)
	}
	if len(repo.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(repo.records))
	}

	rec := repo.records[0]
	if rec.Ticker != "CGC-CA" || rec.CompanyName != "Coyote Gold Corp" {
		t.Errorf("entity fields wrong: %+v", rec)
	}
	if rec.Name != "Coyote Gold" {
		t.Errorf("project name = %q, want Coyote Gold (from headline)", rec.Name)
	}
	if rec.NPVUSDMillions == nil || *rec.NPVUSDMillions != 450 {
		t.Errorf("NPV not denormalized: %v", rec.NPVUSDMillions)
	}
	if rec.Stage != "feasibility" {
		t.Errorf("stage = %q, want feasibility", rec.Stage)
	}
	if rec.Confidence <= 0 || rec.CoveragePercent <= 0 {
		t.Errorf("scores not populated: confidence=%d coverage=%d", rec.Confidence, rec.CoveragePercent)
	}
	if !rec.Validated {
		t.Error("rich report should pass the coverage gate")
	}

	hs := repo.highlights["proj-1"]
	if len(hs) == 0 {
		t.Fatal("no highlights saved")
	}
	for _, h := range hs {
		if h.Quote == "" {
			t.Errorf("highlight %s has no quote", h.DataType)
		}
	}
}

func TestRunFallbackFillsOnlyAbsentMetrics(t *testing.T) {
	repo := &fakeRepo{}
	fallback := &fakeFallback{result: extract.Result{
		catalog.KeyIRR:        {Value: 99, Provenance: extract.Provenance{Source: "ai_fallback"}},
		catalog.KeyPostTaxNPV: {Value: 450, Provenance: extract.Provenance{Source: "ai_fallback"}},
		catalog.KeyCapex:      {Value: 300, Provenance: extract.Provenance{Source: "ai_fallback"}},
	}}

	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: pdfResult()},
		&fakeConverter{text: vagueReportText},
		repo,
	)
	o.SetFallback(fallback)

	report, err := o.Run(context.Background(), []config.Entity{testEntity})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !fallback.called {
		t.Fatal("thin pattern results should consult the fallback")
	}
	if report.FallbackUsed != 1 {
		t.Errorf("FallbackUsed = %d, want 1", report.FallbackUsed)
	}

	rec := repo.records[0]
	irr := rec.Metrics[catalog.KeyIRR]
	if irr.Value != 22 || irr.Provenance.Source != "pattern" {
		t.Errorf("pattern IRR was overwritten by fallback: %+v", irr)
	}
	npv := rec.Metrics[catalog.KeyPostTaxNPV]
	if npv.Value != 450 || npv.Provenance.Source != "ai_fallback" {
		t.Errorf("missing NPV was not filled from fallback: %+v", npv)
	}
}

func TestRunNoFallbackWhenPatternsSuffice(t *testing.T) {
	fallback := &fakeFallback{}
	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: pdfResult()},
		&fakeConverter{text: richReportText},
		&fakeRepo{},
	)
	o.SetFallback(fallback)

	if _, err := o.Run(context.Background(), []config.Entity{testEntity}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fallback.called {
		t.Error("fallback consulted although the pattern pass was sufficient")
	}
}

func TestRunAbortsOnCredentialFailure(t *testing.T) {
	locator := &fakeLocator{err: fmt.Errorf("search: %w", filings.ErrUnauthorized)}
	o := NewOrchestrator(locator, &fakeFetcher{}, &fakeConverter{}, &fakeRepo{})

	entities := []config.Entity{testEntity, {Ticker: "RRL-AU", Name: "Red Ridge Lithium"}}
	_, err := o.Run(context.Background(), entities)
	if err == nil {
		t.Fatal("credential failure should abort the run")
	}
	if locator.calls != 1 {
		t.Errorf("locator called %d times after credential failure, want 1", locator.calls)
	}
}

func TestRunSkipsMissingDocuments(t *testing.T) {
	repo := &fakeRepo{}
	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: docfetch.Result{Missing: true, Reason: "download returned status 404"}},
		&fakeConverter{text: richReportText},
		repo,
	)

	report, err := o.Run(context.Background(), []config.Entity{testEntity})
	if err != nil {
		t.Fatalf("a missing document must not fail the run: %v", err)
	}
	if report.DocumentsMissing != 1 || report.ProjectsSaved != 0 {
		t.Errorf("unexpected counters: %s", report)
	}
	if len(repo.records) != 0 {
		t.Error("a missing document was persisted")
	}
}

func TestRunCoverageGateIsAdvisory(t *testing.T) {
	// One strong metric in an otherwise unrelated document: coverage fails,
	// but the extracted value is still persisted with Validated=false.
	repo := &fakeRepo{}
	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: pdfResult()},
		&fakeConverter{text: "Corporate update mentioning a post-tax NPV of $450 million in passing."},
		repo,
	)

	report, err := o.Run(context.Background(), []config.Entity{testEntity})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.LowCoverage != 1 {
		t.Errorf("LowCoverage = %d, want 1", report.LowCoverage)
	}
	if report.ProjectsSaved != 1 || len(repo.records) != 1 {
		t.Fatalf("low-coverage document with metrics was not persisted: %s", report)
	}
	if repo.records[0].Validated {
		t.Error("record below the coverage threshold must carry Validated=false")
	}
}

func TestRunSkipsDocumentsWithNoMetrics(t *testing.T) {
	repo := &fakeRepo{}
	o := NewOrchestrator(
		&fakeLocator{candidates: []filings.Candidate{testCandidate}},
		&fakeFetcher{result: pdfResult()},
		&fakeConverter{text: "Quarterly housekeeping circular with no technical content."},
		repo,
	)

	report, err := o.Run(context.Background(), []config.Entity{testEntity})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.LowCoverage != 1 || report.ProjectsSaved != 0 {
		t.Errorf("unexpected counters: %s", report)
	}
	if len(repo.records) != 0 {
		t.Error("a document with zero extracted metrics was persisted")
	}
}

func TestProjectNameFromHeadline(t *testing.T) {
	cases := []struct {
		headline string
		want     string
	}{
		{"NI 43-101 Technical Report for the Coyote Gold Project", "Coyote Gold"},
		{"Feasibility Study on the Red Ridge Mine", "Red Ridge"},
		{"Quarterly Activities Report", "Fallback Co"},
	}
	for _, tc := range cases {
		if got := projectNameFromHeadline(tc.headline, "Fallback Co"); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.headline, got, tc.want)
		}
	}
}
