package model

// ManifestEntry is one row of the library manifest: a paper title and the
// filename of its PDF under the configured PDF directory.
type ManifestEntry struct {
	Title       string
	PDFFilename string
}

// BibliographicRecord is the subset of a reference-manager item that the
// pipeline attaches to indexed documents. Raw keeps the untouched item data
// so downstream consumers are not limited to the typed fields.
type BibliographicRecord struct {
	Key     string         `json:"key"`
	Title   string         `json:"title"`
	Authors []string       `json:"authors,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
	Year    int            `json:"year,omitempty"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// DocumentChunk is one retrieval unit of a document. DocumentID plus
// SequenceIndex uniquely identify a chunk; re-ingesting the same document
// produces the same keys, so an upsert overwrites instead of duplicating.
type DocumentChunk struct {
	DocumentID    string
	SequenceIndex int
	Text          string
	Embedding     []float32
	Metadata      map[string]any
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk
	Score float64
}

// DocumentRecord is the per-document row kept in the relational metadata
// store after a successful ingestion.
type DocumentRecord struct {
	Filename    string
	Title       string
	ZoteroKey   string
	ChunkCount  int
	Status      string
	IndexedUnix int64
}

// IngestFailure identifies a document that failed during ingestion and why.
type IngestFailure struct {
	Filename string
	Err      error
}

// IngestReport summarizes one ingestion pass over a manifest.
type IngestReport struct {
	Indexed  int
	Skipped  int
	Failures []IngestFailure
}

// QAResult holds the structured question-answering block produced by the
// analysis pipeline: five fixed questions, each answered with one of four
// allowed verdicts.
type QAResult map[string]string
