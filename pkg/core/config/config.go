// Package config loads process configuration. Credentials always come from
// the environment (or an .env file during development); nothing here is
// compiled into source.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"mining_intel/pkg/core/extract"
	"mining_intel/pkg/core/validate"
)

// Config holds every injected setting the pipeline binaries use.
type Config struct {
	// FactSet Global Filings credentials.
	FilingsUsername string
	FilingsAPIKey   string

	// Postgres connection string.
	DatabaseURL string

	// Gemini fallback extraction. Optional: when the key is empty the
	// pipeline runs pattern-only.
	GeminiAPIKey string
	GeminiModel  string

	// Object storage for retrieved documents. Optional.
	DocumentsBucket string
	AWSRegion       string
	AWSProfile      string
	PublicBaseURL   string

	// Tunables with pipeline defaults.
	CoverageThreshold  int
	FallbackMinMetrics int
	MaxDocumentBytes   int64
	SearchStartDate    string
	SearchEndDate      string
	DocsPerEntity      int
}

// Load reads configuration from the environment. An .env file in the working
// directory is honored when present.
func Load() *Config {
	// Best effort: in deployed environments variables are already set.
	_ = godotenv.Load()

	cfg := &Config{
		FilingsUsername: os.Getenv("FACTSET_USERNAME"),
		FilingsAPIKey:   os.Getenv("FACTSET_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnvDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		DocumentsBucket: os.Getenv("DOCUMENTS_BUCKET"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		AWSProfile:      os.Getenv("AWS_PROFILE"),
		PublicBaseURL:   os.Getenv("DOCUMENTS_PUBLIC_BASE_URL"),

		CoverageThreshold:  getEnvInt("COVERAGE_THRESHOLD", validate.DefaultCoverageThreshold),
		FallbackMinMetrics: getEnvInt("FALLBACK_MIN_METRICS", extract.DefaultFallbackMinMetrics),
		MaxDocumentBytes:   int64(getEnvInt("MAX_DOCUMENT_BYTES", 0)),
		SearchStartDate:    getEnvDefault("SEARCH_START_DATE", "20200101"),
		SearchEndDate:      getEnvDefault("SEARCH_END_DATE", "20241231"),
		DocsPerEntity:      getEnvInt("DOCS_PER_ENTITY", 2),
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Entity is one company whose filings are searched.
type Entity struct {
	Ticker    string `yaml:"ticker"`
	Name      string `yaml:"name"`
	Commodity string `yaml:"commodity"`
	Country   string `yaml:"country"`
}

// EntityList is the YAML watch-list file the pipeline consumes.
type EntityList struct {
	Entities []Entity `yaml:"entities"`
	// SearchTerms and Sources override the built-in defaults when set.
	SearchTerms []string `yaml:"search_terms"`
	Sources     []string `yaml:"sources"`
}

// LoadEntities reads and parses the entity watch-list.
func LoadEntities(path string) (*EntityList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity list %s: %w", path, err)
	}

	var list EntityList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse entity list %s: %w", path, err)
	}
	if len(list.Entities) == 0 {
		return nil, fmt.Errorf("entity list %s contains no entities", path)
	}
	for i, ent := range list.Entities {
		if ent.Ticker == "" {
			return nil, fmt.Errorf("entity %d in %s has no ticker", i, path)
		}
	}
	return &list, nil
}
