package model

import "context"

// TextExtractor converts a document's raw bytes into plain text or markdown.
// Extraction may happen remotely and can take a long time for large PDFs.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Embedder converts text into fixed-dimension vectors. Inputs are embedded
// independently and the result preserves input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Dimension() int
}

// Generator produces text from a system instruction plus a user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// VectorStore persists chunk embeddings and supports similarity search.
// Upsert is keyed by (DocumentID, SequenceIndex) and must be safe to retry.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []DocumentChunk) error
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	HasDocument(ctx context.Context, documentID string) (bool, error)
}

// MetadataStore is the relational side of the knowledge base: one row per
// ingested document.
type MetadataStore interface {
	Init(ctx context.Context) error
	UpsertDocument(ctx context.Context, rec DocumentRecord) error
	GetDocumentByFilename(ctx context.Context, filename string) (DocumentRecord, error)
	ListDocuments(ctx context.Context) ([]DocumentRecord, error)
	Close() error
}
