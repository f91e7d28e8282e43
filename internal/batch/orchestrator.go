package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"paperkb/internal/analysis"
	"paperkb/internal/library"
	"paperkb/internal/logger"
	"paperkb/internal/metadata"
	"paperkb/internal/model"
	"paperkb/internal/pdftext"
)

// ItemState tracks a single paper through a batch run.
type ItemState string

const (
	StatePending    ItemState = "pending"
	StateProcessing ItemState = "processing"
	StateDone       ItemState = "done"
	StateSkipped    ItemState = "skipped"
	StateFailed     ItemState = "failed"
)

// ItemResult is the terminal record for one manifest entry.
type ItemResult struct {
	Filename string
	State    ItemState
	Err      error
}

// Summary aggregates a batch run.
type Summary struct {
	Done    int
	Skipped int
	Failed  int
	Items   []ItemResult
}

// Orchestrator walks the manifest and runs the extraction or analysis
// pipeline over each paper. Runs are resumable: an existing output artifact
// means the paper is finished and is skipped without any model calls, so a
// crashed batch picks up exactly where it stopped. One paper failing never
// stops the batch; a configuration error does, since every remaining item
// would fail the same way.
type Orchestrator struct {
	pdfDir      string
	extractDir  string
	analysisDir string
	loader      *pdftext.Loader
	cache       *metadata.Cache
	extractor   *analysis.Extractor
	analyzer    *analysis.Analyzer
	rewrites    map[string]string
	log         *slog.Logger
}

type Options struct {
	PDFDir      string
	ExtractDir  string
	AnalysisDir string
	Rewrites    map[string]string
}

func NewOrchestrator(
	loader *pdftext.Loader,
	cache *metadata.Cache,
	extractor *analysis.Extractor,
	analyzer *analysis.Analyzer,
	opts Options,
) *Orchestrator {
	rewrites := opts.Rewrites
	if rewrites == nil {
		rewrites = library.DefaultRewrites
	}
	return &Orchestrator{
		pdfDir:      opts.PDFDir,
		extractDir:  opts.ExtractDir,
		analysisDir: opts.AnalysisDir,
		loader:      loader,
		cache:       cache,
		extractor:   extractor,
		analyzer:    analyzer,
		rewrites:    rewrites,
		log:         logger.WithComponent("batch"),
	}
}

// RunExtraction processes every entry through the extractor, writing
// <base>_extraction.json per paper.
func (o *Orchestrator) RunExtraction(ctx context.Context, entries []model.ManifestEntry) (Summary, error) {
	return o.run(ctx, entries, o.extractOne)
}

// RunAnalysis processes every entry through the analyzer, writing
// <base>_analysis.md and <base>_qa.json per paper.
func (o *Orchestrator) RunAnalysis(ctx context.Context, entries []model.ManifestEntry) (Summary, error) {
	return o.run(ctx, entries, o.analyzeOne)
}

func (o *Orchestrator) run(ctx context.Context, entries []model.ManifestEntry, step func(context.Context, string) (ItemState, error)) (Summary, error) {
	var summary Summary
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := library.ApplyRewrites(entry.PDFFilename, o.rewrites)
		o.log.Info("processing", "pdf", name, "n", i+1, "of", len(entries))

		state, err := step(ctx, name)
		if err != nil {
			if errors.Is(err, model.ErrConfiguration) {
				// every remaining item hits the same wall
				return summary, err
			}
			o.log.Error("paper failed", "pdf", name, "error", err)
			summary.Failed++
			summary.Items = append(summary.Items, ItemResult{Filename: name, State: StateFailed, Err: err})
			continue
		}
		switch state {
		case StateSkipped:
			summary.Skipped++
		default:
			summary.Done++
		}
		summary.Items = append(summary.Items, ItemResult{Filename: name, State: state})
	}
	return summary, nil
}

func (o *Orchestrator) extractOne(ctx context.Context, name string) (ItemState, error) {
	outPath := filepath.Join(o.extractDir, artifactName(name, "_extraction.json"))
	if fileExists(outPath) {
		o.log.Debug("extraction output already exists", "path", outPath)
		return StateSkipped, nil
	}

	text, err := o.loadPaper(ctx, name)
	if err != nil {
		return StateFailed, err
	}

	extraction, err := o.extractor.Extract(ctx, text)
	if err != nil {
		return StateFailed, err
	}

	data, err := json.MarshalIndent(extraction, "", "    ")
	if err != nil {
		return StateFailed, err
	}
	if err := writeFileAtomic(outPath, data); err != nil {
		return StateFailed, err
	}
	o.log.Info("extraction saved", "path", outPath)
	return StateDone, nil
}

func (o *Orchestrator) analyzeOne(ctx context.Context, name string) (ItemState, error) {
	mdPath := filepath.Join(o.analysisDir, artifactName(name, "_analysis.md"))
	if fileExists(mdPath) {
		o.log.Debug("analysis output already exists", "path", mdPath)
		return StateSkipped, nil
	}

	text, err := o.loadPaper(ctx, name)
	if err != nil {
		return StateFailed, err
	}

	meta := "{}"
	rec, ok, err := o.cache.Get(name)
	switch {
	case err != nil:
		// unreadable cache entry is worth surfacing but not fatal to the
		// paper: analysis proceeds without metadata
		o.log.Warn("metadata cache read failed", "pdf", name, "error", err)
	case ok:
		if blob, err := json.Marshal(rec); err == nil {
			meta = string(blob)
		}
	}

	markdown, qa, err := o.analyzer.Analyze(ctx, meta, text)
	if err != nil {
		return StateFailed, err
	}

	qaBlob, err := json.MarshalIndent(qa, "", "    ")
	if err != nil {
		return StateFailed, err
	}
	// verdicts first: if the markdown lands without them the next run skips
	// the paper and the verdicts are lost for good
	qaPath := filepath.Join(o.analysisDir, artifactName(name, "_qa.json"))
	if err := writeFileAtomic(qaPath, qaBlob); err != nil {
		return StateFailed, err
	}
	if err := writeFileAtomic(mdPath, []byte(markdown)); err != nil {
		return StateFailed, err
	}
	o.log.Info("analysis saved", "path", mdPath)
	return StateDone, nil
}

func (o *Orchestrator) loadPaper(ctx context.Context, name string) (string, error) {
	path := filepath.Join(o.pdfDir, name)
	text, err := o.loader.Load(ctx, path)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("PDF file not found: %s: %w", name, model.ErrNotFound)
		}
		return "", err
	}
	return text, nil
}

func artifactName(pdfName, suffix string) string {
	return strings.TrimSuffix(pdfName, ".pdf") + suffix
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so readers never observe a partial artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
