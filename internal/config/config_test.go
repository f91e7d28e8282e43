package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"paperkb/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Collection != "master_literature_review" {
		t.Errorf("collection = %q", cfg.Collection)
	}
	if cfg.EmbedDim != 1536 {
		t.Errorf("embed dim = %d", cfg.EmbedDim)
	}
	if cfg.SearchK != 50 {
		t.Errorf("search k = %d", cfg.SearchK)
	}
	if cfg.SimilarityThreshold != 0.5 {
		t.Errorf("similarity threshold = %v", cfg.SimilarityThreshold)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paperkb.yaml")
	yaml := "collection: custom_collection\nsearch_k: 10\nretry:\n  max_attempts: 7\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Collection != "custom_collection" {
		t.Errorf("collection = %q", cfg.Collection)
	}
	if cfg.SearchK != 10 {
		t.Errorf("search k = %d", cfg.SearchK)
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("retry attempts = %d", cfg.Retry.MaxAttempts)
	}
	// untouched fields keep defaults
	if cfg.EmbedDim != 1536 {
		t.Errorf("embed dim = %d", cfg.EmbedDim)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.Collection != Default().Collection {
		t.Errorf("collection = %q", cfg.Collection)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PDF_DIRECTORY", "/papers")
	t.Setenv("EMBED_DIM", "768")
	t.Setenv("QDRANT_URL", "http://qdrant:6333")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.APIKey)
	}
	if cfg.PDFDir != "/papers" {
		t.Errorf("pdf dir = %q", cfg.PDFDir)
	}
	if cfg.EmbedDim != 768 {
		t.Errorf("embed dim = %d", cfg.EmbedDim)
	}
	if cfg.QdrantURL != "http://qdrant:6333" {
		t.Errorf("qdrant url = %q", cfg.QdrantURL)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = ""
	if err := cfg.Validate(); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_BadEmbedDim(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-test"
	cfg.EmbedDim = 0
	if err := cfg.Validate(); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
