package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"paperkb/internal/analysis"
	"paperkb/internal/chunk"
	"paperkb/internal/config"
	"paperkb/internal/library"
	"paperkb/internal/llm"
	"paperkb/internal/metadata"
	"paperkb/internal/metastore"
	"paperkb/internal/model"
	"paperkb/internal/pdftext"
	"paperkb/internal/vectorstore/qdrant"
)

// app holds the wired service graph shared by the commands. Construction is
// cheap; no network calls happen until a pipeline runs.
type app struct {
	cfg     config.Config
	llm     *llm.Client
	loader  *pdftext.Loader
	chunker *chunk.SemanticChunker
	vectors *qdrant.Store
	docs    *metastore.SQLiteStore
	cache   *metadata.Cache
	prompts analysis.PromptSet
}

func buildApp(cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second

	client, err := llm.NewClient(llm.Config{
		BaseURL:    cfg.APIBaseURL,
		APIKey:     cfg.APIKey,
		ChatModel:  cfg.LLMModel,
		EmbedModel: cfg.EmbedModel,
		EmbedDim:   cfg.EmbedDim,
		Timeout:    timeout,
	})
	if err != nil {
		return nil, err
	}

	extractor := pdftext.NewDoclingClient(cfg.ExtractorURL, timeout)
	loader := pdftext.NewLoader(extractor, filepath.Join(cfg.StateDir, "pdftext_cache"))

	prompts, err := analysis.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		llm:     client,
		loader:  loader,
		chunker: chunk.NewSemanticChunker(client, cfg.SimilarityThreshold),
		vectors: qdrant.NewStore(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			Timeout:    timeout,
		}),
		docs:    metastore.NewSQLiteStore(filepath.Join(cfg.StateDir, "documents.db")),
		cache:   metadata.NewCache(cfg.MetadataCacheDir),
		prompts: prompts,
	}, nil
}

func (a *app) manifestEntries() ([]model.ManifestEntry, error) {
	entries, err := library.LoadManifest(a.cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", a.cfg.ManifestPath, err)
	}
	return entries, nil
}
