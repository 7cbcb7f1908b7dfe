package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"mining_intel/pkg/core/blob"
	"mining_intel/pkg/core/config"
	"mining_intel/pkg/core/docfetch"
	"mining_intel/pkg/core/extract"
	"mining_intel/pkg/core/filings"
	"mining_intel/pkg/core/llm"
	"mining_intel/pkg/core/pipeline"
	"mining_intel/pkg/core/store"
	"mining_intel/pkg/core/textconv"
)

func main() {
	entitiesPath := flag.String("entities", "configs/entities.yaml", "entity watch-list file")
	limit := flag.Int("limit", 0, "documents to process per entity (0 = configured default)")
	flag.Parse()

	cfg := config.Load()
	if cfg.FilingsUsername == "" || cfg.FilingsAPIKey == "" {
		log.Fatal("Error: FACTSET_USERNAME and FACTSET_API_KEY must be set.")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("Error: DATABASE_URL is not set.")
	}

	entities, err := config.LoadEntities(*entitiesPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx := context.Background()
	if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("Error: database init failed: %v", err)
	}
	defer store.Close()

	fmt.Println("🚀 Mining Intel Pipeline Starting...")
	fmt.Printf("📂 %d entities from %s\n", len(entities.Entities), *entitiesPath)

	client := filings.NewClient(cfg.FilingsUsername, cfg.FilingsAPIKey)
	locator := filings.NewLocator(client)
	locator.StartDate = cfg.SearchStartDate
	locator.EndDate = cfg.SearchEndDate
	if len(entities.SearchTerms) > 0 {
		locator.Terms = entities.SearchTerms
	}
	if len(entities.Sources) > 0 {
		locator.Sources = entities.Sources
	}

	fetcher := docfetch.NewFetcher(cfg.FilingsUsername, cfg.FilingsAPIKey)
	if cfg.MaxDocumentBytes > 0 {
		fetcher.MaxBytes = cfg.MaxDocumentBytes
	}

	converter := textconv.NewAutoConverter()
	repo := store.NewProjectRepo()

	orch := pipeline.NewOrchestrator(locator, fetcher, converter, repo)
	orch.CoverageThreshold = cfg.CoverageThreshold
	orch.FallbackMinMetrics = cfg.FallbackMinMetrics
	orch.InterDocDelay = 500 * time.Millisecond
	if *limit > 0 {
		orch.DocsPerEntity = *limit
	} else if cfg.DocsPerEntity > 0 {
		orch.DocsPerEntity = cfg.DocsPerEntity
	}

	if cfg.GeminiAPIKey != "" {
		provider := &llm.GeminiProvider{Model: cfg.GeminiModel, APIKey: cfg.GeminiAPIKey}
		orch.SetFallback(extract.NewAIExtractor(provider))
	} else {
		log.Println("Warning: GEMINI_API_KEY not set, running pattern extraction only.")
	}

	if cfg.DocumentsBucket != "" {
		docs, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:        cfg.DocumentsBucket,
			Region:        cfg.AWSRegion,
			Profile:       cfg.AWSProfile,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("Error: document store init failed: %v", err)
		}
		orch.SetDocumentStore(docs)
	} else {
		log.Println("Warning: DOCUMENTS_BUCKET not set, source documents will not be archived.")
	}

	report, err := orch.Run(ctx, entities.Entities)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Println("\n################################################################################")
	fmt.Println("                         MINING INTEL - RUN SUMMARY")
	fmt.Println("################################################################################")
	fmt.Println(report)

	if projects, highlights, err := repo.Counts(ctx); err == nil {
		fmt.Printf("Database totals: %d projects, %d highlights\n", projects, highlights)
	}

	fmt.Println("\n[Done] Pipeline Complete.")
}
