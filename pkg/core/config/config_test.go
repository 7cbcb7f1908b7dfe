package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.yaml")
	data := `entities:
  - ticker: CGC-CA
    name: Coyote Gold Corp
    commodity: gold
    country: Canada
  - ticker: RRL-AU
    name: Red Ridge Lithium
    commodity: lithium
    country: Australia
search_terms:
  - "NI 43-101"
sources:
  - SDR
  - EDG
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities failed: %v", err)
	}
	if len(list.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(list.Entities))
	}
	if list.Entities[0].Ticker != "CGC-CA" || list.Entities[0].Commodity != "gold" {
		t.Errorf("first entity parsed wrong: %+v", list.Entities[0])
	}
	if len(list.SearchTerms) != 1 || list.SearchTerms[0] != "NI 43-101" {
		t.Errorf("search terms parsed wrong: %v", list.SearchTerms)
	}
	if len(list.Sources) != 2 {
		t.Errorf("sources parsed wrong: %v", list.Sources)
	}
}

func TestLoadEntitiesRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("entities: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEntities(path); err == nil {
		t.Error("expected an error for an empty entity list")
	}
}

func TestLoadEntitiesRejectsMissingTicker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("entities:\n  - name: No Ticker Mining\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEntities(path); err == nil {
		t.Error("expected an error for an entity without a ticker")
	}
}
