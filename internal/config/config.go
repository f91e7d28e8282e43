package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"paperkb/internal/model"
)

// RetryConfig bounds retries against the vector store and remote APIs.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMS int     `yaml:"initial_delay_ms"`
	MaxDelayMS     int     `yaml:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier"`
}

// Config is the explicit configuration surface for every service
// constructor. There are no ambient globals: commands load one Config and
// pass it down.
type Config struct {
	PDFDir           string `yaml:"pdf_dir"`
	StateDir         string `yaml:"state_dir"`
	ManifestPath     string `yaml:"manifest_path"`
	MetadataCacheDir string `yaml:"metadata_cache_dir"`
	ExtractionDir    string `yaml:"extraction_dir"`
	AnalysisDir      string `yaml:"analysis_dir"`
	PromptsPath      string `yaml:"prompts_path"`

	LLMModel     string `yaml:"llm_model"`
	EmbedModel   string `yaml:"embed_model"`
	EmbedDim     int    `yaml:"embed_dim"`
	APIBaseURL   string `yaml:"api_base_url"`
	APIKey       string `yaml:"-"`
	ExtractorURL string `yaml:"extractor_url"`

	QdrantURL    string `yaml:"qdrant_url"`
	QdrantAPIKey string `yaml:"-"`
	Collection   string `yaml:"collection"`

	ZoteroUserID     string `yaml:"-"`
	ZoteroAPIKey     string `yaml:"-"`
	ZoteroCollection string `yaml:"zotero_collection"`

	RequestTimeoutSecs  int     `yaml:"request_timeout_secs"`
	SearchK             int     `yaml:"search_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ContextCharBudget   int     `yaml:"context_char_budget"`

	Retry RetryConfig `yaml:"retry"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration before any file or environment
// overrides.
func Default() Config {
	return Config{
		PDFDir:           ".",
		StateDir:         filepath.Join(".", ".paperkb"),
		ManifestPath:     "library.csv",
		MetadataCacheDir: "zotero_cache_metadata",
		ExtractionDir:    "extraction_outputs",
		AnalysisDir:      "analysis_outputs",

		LLMModel:     "gpt-5-mini",
		EmbedModel:   "text-embedding-3-small",
		EmbedDim:     1536,
		APIBaseURL:   "https://api.openai.com/v1",
		ExtractorURL: "http://localhost:5001",

		QdrantURL:  "http://localhost:6333",
		Collection: "master_literature_review",

		RequestTimeoutSecs:  120,
		SearchK:             50,
		SimilarityThreshold: 0.5,
		ContextCharBudget:   24000,

		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelayMS: 1000,
			MaxDelayMS:     10000,
			Multiplier:     2.0,
		},

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if it exists), then .env files and process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, envFile := range []string{".env.local", ".env"} {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fine, file-level overrides are optional
		case err != nil:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.APIKey, "OPENAI_API_KEY")
	setString(&cfg.APIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.EmbedModel, "EMBED_MODEL")
	setString(&cfg.PDFDir, "PDF_DIRECTORY")
	setString(&cfg.MetadataCacheDir, "ZOTERO_CACHE_DIR")
	setString(&cfg.ZoteroUserID, "ZOTERO_USER_ID")
	setString(&cfg.ZoteroAPIKey, "ZOTERO_API_KEY")
	setString(&cfg.QdrantURL, "QDRANT_URL")
	setString(&cfg.QdrantAPIKey, "QDRANT_API_KEY")
	setString(&cfg.ExtractorURL, "EXTRACTOR_URL")
	setInt(&cfg.EmbedDim, "EMBED_DIM")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

// Validate checks the settings every pipeline needs. A missing API key is a
// fatal configuration error by contract.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY must be set", model.ErrConfiguration)
	}
	if strings.TrimSpace(c.PDFDir) == "" {
		return fmt.Errorf("%w: pdf directory is required", model.ErrConfiguration)
	}
	if strings.TrimSpace(c.Collection) == "" {
		return fmt.Errorf("%w: vector collection name is required", model.ErrConfiguration)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", model.ErrConfiguration)
	}
	return nil
}
