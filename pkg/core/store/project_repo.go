package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mining_intel/pkg/core/catalog"
	"mining_intel/pkg/core/extract"
)

// ProjectRecord is the persisted view of one extracted technical report.
type ProjectRecord struct {
	ID          string
	Name        string
	Ticker      string
	CompanyName string
	Stage       string
	Description string

	DocumentID  string
	DocumentURL string
	FiledAt     string

	// Headline figures denormalized out of Metrics for querying.
	NPVUSDMillions   *float64
	IRRPercent       *float64
	CapexUSDMillions *float64
	Resource         string
	Reserve          string

	Confidence      int
	CoveragePercent int
	// Validated records the advisory coverage gate outcome.
	Validated bool

	Metrics extract.Result
}

// Highlight is one extracted value with its provenance, persisted append-only.
type Highlight struct {
	DataType string
	Value    string
	Page     int
	Quote    string
}

// ProjectRepo stores project records and their highlights.
//
// Schema assumption (managed by migrations elsewhere):
//
//	CREATE TABLE IF NOT EXISTS projects (
//	  id UUID PRIMARY KEY,
//	  name TEXT NOT NULL,
//	  ticker TEXT NOT NULL,
//	  company_name TEXT,
//	  stage TEXT,
//	  description TEXT,
//	  document_id TEXT NOT NULL,
//	  document_url TEXT,
//	  filed_at TEXT,
//	  npv_usd_m DOUBLE PRECISION,
//	  irr_percent DOUBLE PRECISION,
//	  capex_usd_m DOUBLE PRECISION,
//	  resource TEXT,
//	  reserve TEXT,
//	  confidence INT,
//	  coverage_percent INT,
//	  validated BOOLEAN,
//	  metrics_json JSONB,
//	  created_at TIMESTAMPTZ,
//	  updated_at TIMESTAMPTZ,
//	  UNIQUE (ticker, document_id)
//	);
//
//	CREATE TABLE IF NOT EXISTS pdf_highlights (
//	  id UUID PRIMARY KEY,
//	  project_id UUID REFERENCES projects(id),
//	  data_type TEXT,
//	  value TEXT,
//	  page INT,
//	  quote TEXT,
//	  created_at TIMESTAMPTZ
//	);
type ProjectRepo struct{}

// NewProjectRepo creates a new repository instance.
func NewProjectRepo() *ProjectRepo {
	return &ProjectRepo{}
}

// Upsert saves the record keyed on (ticker, document_id): re-running the
// pipeline refreshes a project instead of duplicating it. Returns the row id.
func (r *ProjectRepo) Upsert(ctx context.Context, rec *ProjectRecord) (string, error) {
	pool := GetPool()
	if pool == nil {
		return "", fmt.Errorf("database pool not initialized")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metrics: %w", err)
	}

	query := `
		INSERT INTO projects (
			id, name, ticker, company_name, stage, description,
			document_id, document_url, filed_at,
			npv_usd_m, irr_percent, capex_usd_m, resource, reserve,
			confidence, coverage_percent, validated, metrics_json, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		ON CONFLICT (ticker, document_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			company_name = EXCLUDED.company_name,
			stage = EXCLUDED.stage,
			description = EXCLUDED.description,
			document_url = EXCLUDED.document_url,
			filed_at = EXCLUDED.filed_at,
			npv_usd_m = EXCLUDED.npv_usd_m,
			irr_percent = EXCLUDED.irr_percent,
			capex_usd_m = EXCLUDED.capex_usd_m,
			resource = EXCLUDED.resource,
			reserve = EXCLUDED.reserve,
			confidence = EXCLUDED.confidence,
			coverage_percent = EXCLUDED.coverage_percent,
			validated = EXCLUDED.validated,
			metrics_json = EXCLUDED.metrics_json,
			updated_at = EXCLUDED.updated_at
		RETURNING id;
	`

	var id string
	err = pool.QueryRow(ctx, query,
		rec.ID, rec.Name, rec.Ticker, rec.CompanyName, rec.Stage, rec.Description,
		rec.DocumentID, rec.DocumentURL, rec.FiledAt,
		rec.NPVUSDMillions, rec.IRRPercent, rec.CapexUSDMillions, rec.Resource, rec.Reserve,
		rec.Confidence, rec.CoveragePercent, rec.Validated, metricsJSON, time.Now(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save project: %w", err)
	}
	return id, nil
}

// InsertHighlights appends the highlights for a project.
func (r *ProjectRepo) InsertHighlights(ctx context.Context, projectID string, highlights []Highlight) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		INSERT INTO pdf_highlights (id, project_id, data_type, value, page, quote, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, h := range highlights {
		if _, err := pool.Exec(ctx, query,
			uuid.NewString(), projectID, h.DataType, h.Value, h.Page, h.Quote, time.Now(),
		); err != nil {
			return fmt.Errorf("failed to save highlight %s: %w", h.DataType, err)
		}
	}
	return nil
}

// Counts returns the total projects and highlights rows for the run summary.
func (r *ProjectRepo) Counts(ctx context.Context) (projects int64, highlights int64, err error) {
	pool := GetPool()
	if pool == nil {
		return 0, 0, fmt.Errorf("database pool not initialized")
	}

	if err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&projects); err != nil {
		return 0, 0, fmt.Errorf("failed to count projects: %w", err)
	}
	if err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM pdf_highlights`).Scan(&highlights); err != nil {
		return 0, 0, fmt.Errorf("failed to count highlights: %w", err)
	}
	return projects, highlights, nil
}

// RecordFromExtraction builds the persisted record for one document.
func RecordFromExtraction(name, ticker, companyName, documentID, documentURL, filedAt, headline string,
	metrics extract.Result, confidence, coverage int, validated bool) *ProjectRecord {

	rec := &ProjectRecord{
		Name:            name,
		Ticker:          ticker,
		CompanyName:     companyName,
		Stage:           "feasibility",
		Description:     "Technical report: " + headline,
		DocumentID:      documentID,
		DocumentURL:     documentURL,
		FiledAt:         filedAt,
		Confidence:      confidence,
		CoveragePercent: coverage,
		Validated:       validated,
		Metrics:         metrics,
	}

	if mv, ok := metrics[catalog.KeyStage]; ok && mv.Text != "" {
		rec.Stage = mv.Text
	}
	if mv, ok := metrics[catalog.KeyPostTaxNPV]; ok {
		v := mv.Value
		rec.NPVUSDMillions = &v
	} else if mv, ok := metrics[catalog.KeyPreTaxNPV]; ok {
		v := mv.Value
		rec.NPVUSDMillions = &v
	}
	if mv, ok := metrics[catalog.KeyIRR]; ok {
		v := mv.Value
		rec.IRRPercent = &v
	}
	if mv, ok := metrics[catalog.KeyCapex]; ok {
		v := mv.Value
		rec.CapexUSDMillions = &v
	}
	if mv, ok := metrics[catalog.KeyTotalResource]; ok {
		rec.Resource = displayValue(mv)
	}
	if mv, ok := metrics[catalog.KeyReserve]; ok {
		rec.Reserve = displayValue(mv)
	}

	return rec
}

func displayValue(mv extract.MetricValue) string {
	if mv.Text != "" {
		return mv.Text
	}
	return fmt.Sprintf("%.2f Mt", mv.Value/1_000_000)
}
