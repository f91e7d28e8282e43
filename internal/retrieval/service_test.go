package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperkb/internal/model"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 2 }

type stubStore struct {
	hits []model.ScoredChunk
}

func (s *stubStore) EnsureCollection(context.Context, int) error         { return nil }
func (s *stubStore) Upsert(context.Context, []model.DocumentChunk) error { return nil }
func (s *stubStore) HasDocument(context.Context, string) (bool, error)   { return false, nil }

func (s *stubStore) Search(_ context.Context, _ []float32, k int) ([]model.ScoredChunk, error) {
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

type recordingGenerator struct {
	lastSystem string
	lastUser   string
	reply      string
}

func (g *recordingGenerator) Generate(_ context.Context, system, user string) (string, error) {
	g.lastSystem = system
	g.lastUser = user
	return g.reply, nil
}

func scored(docID string, seq int, text string, score float64) model.ScoredChunk {
	return model.ScoredChunk{
		Chunk: model.DocumentChunk{DocumentID: docID, SequenceIndex: seq, Text: text},
		Score: score,
	}
}

func TestSearch_OrdersByScoreAndCaps(t *testing.T) {
	store := &stubStore{hits: []model.ScoredChunk{
		scored("b.pdf", 0, "mid", 0.5),
		scored("a.pdf", 0, "best", 0.9),
		scored("c.pdf", 0, "worst", 0.1),
	}}
	svc := NewService(stubEmbedder{}, store, &recordingGenerator{}, 50, 0)

	hits, err := svc.Search(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "best", hits[0].Chunk.Text)
	assert.Equal(t, "mid", hits[1].Chunk.Text)
}

func TestSearch_EmptyIndex(t *testing.T) {
	svc := NewService(stubEmbedder{}, &stubStore{}, &recordingGenerator{}, 50, 0)
	hits, err := svc.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_NonPositiveKUsesDefault(t *testing.T) {
	store := &stubStore{hits: []model.ScoredChunk{scored("a.pdf", 0, "t", 0.9)}}
	svc := NewService(stubEmbedder{}, store, &recordingGenerator{}, 5, 0)
	hits, err := svc.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestAnswer_ReturnsGeneratorOutputVerbatim(t *testing.T) {
	gen := &recordingGenerator{reply: "  The answer, with whitespace.  "}
	store := &stubStore{hits: []model.ScoredChunk{scored("a.pdf", 0, "context text", 0.8)}}
	svc := NewService(stubEmbedder{}, store, gen, 50, 0)

	answer, err := svc.Answer(context.Background(), "what is it?")
	require.NoError(t, err)
	assert.Equal(t, "  The answer, with whitespace.  ", answer)
	assert.Equal(t, SystemPrompt, gen.lastSystem)
	assert.Contains(t, gen.lastUser, "context text")
	assert.Contains(t, gen.lastUser, "what is it?")
}

func TestAnswer_EmptyIndexStatesNoDocuments(t *testing.T) {
	gen := &recordingGenerator{reply: "I don't have enough information."}
	svc := NewService(stubEmbedder{}, &stubStore{}, gen, 50, 0)

	_, err := svc.Answer(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Contains(t, gen.lastUser, "No documents are available")
}

func TestBuildPrompt_BudgetDropsLowestRanked(t *testing.T) {
	long := strings.Repeat("x", 200)
	hits := []model.ScoredChunk{
		scored("a.pdf", 0, long, 0.9),
		scored("b.pdf", 0, long, 0.5),
		scored("c.pdf", 0, long, 0.1),
	}

	prompt := BuildPrompt("q", hits, 450)
	assert.Contains(t, prompt, "a.pdf")
	assert.Contains(t, prompt, "b.pdf")
	assert.NotContains(t, prompt, "c.pdf")
}

func TestBuildPrompt_AlwaysKeepsTopChunk(t *testing.T) {
	hits := []model.ScoredChunk{scored("a.pdf", 0, strings.Repeat("y", 500), 0.9)}
	prompt := BuildPrompt("q", hits, 100)
	assert.Contains(t, prompt, "a.pdf")
}

func TestBuildPrompt_IncludesTitleFromMetadata(t *testing.T) {
	hit := scored("a.pdf", 2, "body", 0.9)
	hit.Chunk.Metadata = map[string]any{"title": "A Fine Paper"}
	prompt := BuildPrompt("q", []model.ScoredChunk{hit}, 10000)
	assert.Contains(t, prompt, "A Fine Paper (a.pdf), chunk 2")
}
