package chunk

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"paperkb/internal/model"
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SemanticChunker merges adjacent sentences into chunks while their
// embeddings stay cosine-similar, so chunk boundaries track topic shifts
// rather than a fixed token count. Each final chunk is embedded
// independently. Deterministic for a fixed text and embedder, and the
// (document, sequence) keys are stable across re-runs so re-ingestion
// re-upserts instead of duplicating.
type SemanticChunker struct {
	embedder     model.Embedder
	threshold    float64
	maxSentences int
	batchSize    int
}

func NewSemanticChunker(embedder model.Embedder, threshold float64) *SemanticChunker {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &SemanticChunker{
		embedder:     embedder,
		threshold:    threshold,
		maxSentences: 16,
		batchSize:    64,
	}
}

// ChunkAndEmbed splits text into semantically coherent chunks and computes
// one embedding per chunk. Empty or whitespace-only text yields no chunks.
func (c *SemanticChunker) ChunkAndEmbed(ctx context.Context, docID, text string) ([]model.DocumentChunk, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	groups, err := c.groupSentences(ctx, sentences)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = strings.Join(g, " ")
	}
	vectors, err := c.embedBatched(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]model.DocumentChunk, len(texts))
	for i := range texts {
		chunks[i] = model.DocumentChunk{
			DocumentID:    docID,
			SequenceIndex: i,
			Text:          texts[i],
			Embedding:     vectors[i],
		}
	}
	return chunks, nil
}

// groupSentences walks sentence pairs and starts a new group whenever the
// cosine similarity of adjacent sentence embeddings drops below the
// threshold, or the group hits the sentence cap.
func (c *SemanticChunker) groupSentences(ctx context.Context, sentences []string) ([][]string, error) {
	if len(sentences) == 1 {
		return [][]string{sentences}, nil
	}

	vectors, err := c.embedBatched(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}

	var groups [][]string
	current := []string{sentences[0]}
	for i := 1; i < len(sentences); i++ {
		sim := Cosine(vectors[i-1], vectors[i])
		if sim >= c.threshold && len(current) < c.maxSentences {
			current = append(current, sentences[i])
			continue
		}
		groups = append(groups, current)
		current = []string{sentences[i]}
	}
	groups = append(groups, current)
	return groups, nil
}

func (c *SemanticChunker) embedBatched(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		vectors, err := c.embedder.Embed(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func splitSentences(text string) []string {
	raw := sentenceSplitter.FindAllString(text, -1)
	if len(raw) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
