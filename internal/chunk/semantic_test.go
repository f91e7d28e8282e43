package chunk

import (
	"context"
	"reflect"
	"testing"
)

// fakeEmbedder assigns each distinct input a fixed vector; unknown inputs
// get a default vector. Deterministic by construction.
type fakeEmbedder struct {
	vectors map[string][]float32
	def     []float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if v, ok := f.vectors[in]; ok {
			out[i] = v
		} else {
			out[i] = f.def
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

func TestChunkAndEmbed_MergesSimilarSentences(t *testing.T) {
	// first two sentences share a direction, the third is orthogonal
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"Faces are synthesized.":    {1, 0},
			"Expressions are rendered.": {1, 0.1},
			"Unrelated topic entirely!": {0, 1},
		},
		def: []float32{1, 1},
	}
	c := NewSemanticChunker(emb, 0.5)

	chunks, err := c.ChunkAndEmbed(context.Background(), "doc.pdf",
		"Faces are synthesized. Expressions are rendered. Unrelated topic entirely!")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "Faces are synthesized. Expressions are rendered." {
		t.Errorf("similar sentences not merged: %q", chunks[0].Text)
	}
	if chunks[1].Text != "Unrelated topic entirely!" {
		t.Errorf("dissimilar sentence not split off: %q", chunks[1].Text)
	}
}

func TestChunkAndEmbed_SequenceIndexesAndDocID(t *testing.T) {
	emb := &fakeEmbedder{def: []float32{1, 0}}
	c := NewSemanticChunker(emb, 0.9)

	chunks, err := c.ChunkAndEmbed(context.Background(), "paper.pdf", "One. Two. Three.")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	for i, ch := range chunks {
		if ch.SequenceIndex != i {
			t.Errorf("chunk %d has sequence index %d", i, ch.SequenceIndex)
		}
		if ch.DocumentID != "paper.pdf" {
			t.Errorf("chunk %d has document id %q", i, ch.DocumentID)
		}
		if len(ch.Embedding) == 0 {
			t.Errorf("chunk %d has no embedding", i)
		}
	}
}

func TestChunkAndEmbed_EmptyText(t *testing.T) {
	c := NewSemanticChunker(&fakeEmbedder{def: []float32{1}}, 0.5)
	chunks, err := c.ChunkAndEmbed(context.Background(), "d", "   \n  ")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestChunkAndEmbed_TextWithoutTerminators(t *testing.T) {
	emb := &fakeEmbedder{def: []float32{1, 0}}
	c := NewSemanticChunker(emb, 0.5)

	chunks, err := c.ChunkAndEmbed(context.Background(), "d", "a fragment with no period")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "a fragment with no period" {
		t.Fatalf("fragment should become a single chunk: %+v", chunks)
	}
}

func TestChunkAndEmbed_Deterministic(t *testing.T) {
	text := "Alpha one. Alpha two. Beta three! Gamma four?"
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"Alpha one.":  {1, 0},
			"Alpha two.":  {1, 0},
			"Beta three!": {0, 1},
			"Gamma four?": {-1, 0},
		},
		def: []float32{1, 1},
	}
	c := NewSemanticChunker(emb, 0.5)

	first, err := c.ChunkAndEmbed(context.Background(), "d", text)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.ChunkAndEmbed(context.Background(), "d", text)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same text and embedder produced different chunkings")
	}
}

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}
