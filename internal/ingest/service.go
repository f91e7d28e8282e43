package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"paperkb/internal/chunk"
	"paperkb/internal/library"
	"paperkb/internal/logger"
	"paperkb/internal/metadata"
	"paperkb/internal/model"
	"paperkb/internal/pdftext"
)

// Service drives knowledge ingestion: for each manifest entry it loads the
// PDF text, attaches cached bibliographic metadata, chunks and embeds the
// content, and upserts everything into the vector index and document store.
// Documents are processed strictly one at a time; a failure on one document
// is reported and never aborts the rest of the batch.
type Service struct {
	pdfDir   string
	loader   *pdftext.Loader
	chunker  *chunk.SemanticChunker
	vectors  model.VectorStore
	docs     model.MetadataStore
	cache    *metadata.Cache
	rewrites map[string]string
	backoff  BackoffPolicy
	log      *slog.Logger

	// sleep is swapped out in tests so backoff does not slow them down.
	sleep func(time.Duration)
	now   func() time.Time
}

// Options for constructing the service.
type Options struct {
	PDFDir   string
	Rewrites map[string]string
	Backoff  BackoffPolicy
}

// NewService wires the pipeline and ensures the vector collection exists
// with the embedder's dimensionality and cosine distance. The collection
// check is idempotent and runs exactly once, here.
func NewService(
	ctx context.Context,
	loader *pdftext.Loader,
	chunker *chunk.SemanticChunker,
	embedder model.Embedder,
	vectors model.VectorStore,
	docs model.MetadataStore,
	cache *metadata.Cache,
	opts Options,
) (*Service, error) {
	if err := vectors.EnsureCollection(ctx, embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure vector collection: %w", err)
	}
	rewrites := opts.Rewrites
	if rewrites == nil {
		rewrites = library.DefaultRewrites
	}
	return &Service{
		pdfDir:   opts.PDFDir,
		loader:   loader,
		chunker:  chunker,
		vectors:  vectors,
		docs:     docs,
		cache:    cache,
		rewrites: rewrites,
		backoff:  opts.Backoff,
		log:      logger.WithComponent("ingest"),
		sleep:    time.Sleep,
		now:      time.Now,
	}, nil
}

// Ingest processes every manifest entry and returns a report. SkipIfExists
// consults the vector index before doing any work for a document; pass
// false to force re-ingestion (safe, since upserts overwrite).
func (s *Service) Ingest(ctx context.Context, entries []model.ManifestEntry, skipIfExists bool) (model.IngestReport, error) {
	var report model.IngestReport
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := library.ApplyRewrites(entry.PDFFilename, s.rewrites)
		skipped, err := s.ingestOne(ctx, entry, name, skipIfExists)
		if err != nil {
			s.log.Error("document failed", "pdf", name, "error", err)
			report.Failures = append(report.Failures, model.IngestFailure{Filename: name, Err: err})
			if model.IsRetryable(err) {
				// a store that just failed repeatedly needs breathing room
				// before the next document hits it
				s.sleep(s.backoff.withDefaults().InitialDelay)
			}
			continue
		}
		if skipped {
			report.Skipped++
			continue
		}
		report.Indexed++
	}
	return report, nil
}

func (s *Service) ingestOne(ctx context.Context, entry model.ManifestEntry, name string, skipIfExists bool) (skipped bool, err error) {
	if skipIfExists {
		exists, err := s.vectors.HasDocument(ctx, name)
		if err != nil {
			return false, fmt.Errorf("check existing index: %w", err)
		}
		if exists {
			s.log.Debug("already indexed", "pdf", name)
			return true, nil
		}
	}

	text, err := s.loader.Load(ctx, filepath.Join(s.pdfDir, name))
	if err != nil {
		return false, err
	}

	rec, hasMeta, err := s.cache.Get(name)
	if err != nil {
		// unreadable cache entry is worth surfacing but not fatal to the
		// document: ingest proceeds without metadata
		s.log.Warn("metadata cache read failed", "pdf", name, "error", err)
		hasMeta = false
	}

	chunks, err := s.chunker.ChunkAndEmbed(ctx, name, text)
	if err != nil {
		return false, fmt.Errorf("chunk and embed: %w", err)
	}
	if len(chunks) == 0 {
		return false, fmt.Errorf("no text extracted from %s", name)
	}

	payload := chunkMetadata(entry, rec, hasMeta)
	for i := range chunks {
		chunks[i].Metadata = payload
	}

	err = retry(ctx, s.backoff, s.sleep, func() error {
		return s.vectors.Upsert(ctx, chunks)
	})
	if err != nil {
		return false, fmt.Errorf("upsert chunks: %w", err)
	}

	doc := model.DocumentRecord{
		Filename:    name,
		Title:       entry.Title,
		ChunkCount:  len(chunks),
		Status:      "indexed",
		IndexedUnix: s.now().Unix(),
	}
	if hasMeta {
		doc.ZoteroKey = rec.Key
	}
	if err := s.docs.UpsertDocument(ctx, doc); err != nil {
		return false, fmt.Errorf("record document: %w", err)
	}

	s.log.Info("indexed", "pdf", name, "chunks", len(chunks))
	return false, nil
}

func chunkMetadata(entry model.ManifestEntry, rec model.BibliographicRecord, hasMeta bool) map[string]any {
	payload := map[string]any{"title": entry.Title}
	if !hasMeta {
		return payload
	}
	payload["zotero_key"] = rec.Key
	if rec.Title != "" {
		payload["title"] = rec.Title
	}
	if len(rec.Authors) > 0 {
		payload["authors"] = rec.Authors
	}
	if len(rec.Tags) > 0 {
		payload["tags"] = rec.Tags
	}
	if rec.Year != 0 {
		payload["year"] = rec.Year
	}
	return payload
}
