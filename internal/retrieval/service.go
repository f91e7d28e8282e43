package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"paperkb/internal/logger"
	"paperkb/internal/model"
)

const defaultSearchK = 50

// Service answers free-text queries against the indexed corpus: embed the
// query, run a similarity search, and synthesize a grounded answer from the
// retrieved chunks.
type Service struct {
	embedder      model.Embedder
	store         model.VectorStore
	gen           model.Generator
	defaultK      int
	contextBudget int
	log           *slog.Logger
}

func NewService(embedder model.Embedder, store model.VectorStore, gen model.Generator, defaultK, contextBudget int) *Service {
	if defaultK <= 0 {
		defaultK = defaultSearchK
	}
	if contextBudget <= 0 {
		contextBudget = 24000
	}
	return &Service{
		embedder:      embedder,
		store:         store,
		gen:           gen,
		defaultK:      defaultK,
		contextBudget: contextBudget,
		log:           logger.WithComponent("retrieval"),
	}
}

// Search returns at most k chunks ordered by non-increasing similarity.
// An empty index yields an empty slice, not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]model.ScoredChunk, error) {
	if k <= 0 {
		k = s.defaultK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	hits, err := s.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	// the store returns hits sorted, but the ordering contract is ours
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Answer retrieves context for the question and asks the model for a
// grounded response, returned verbatim. When nothing is retrieved the
// prompt states explicitly that no documents are available, so the model
// answers "insufficient information" instead of inventing sources.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	hits, err := s.Search(ctx, question, s.defaultK)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(question, hits, s.contextBudget)
	s.log.Debug("answering", "question", question, "chunks", len(hits))

	answer, err := s.gen.Generate(ctx, SystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}
