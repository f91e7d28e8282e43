package pdftext

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"paperkb/internal/logger"
	"paperkb/internal/model"
)

// Loader turns a PDF path into extracted text. Extraction itself is remote
// and expensive, so results are cached on disk keyed by content hash: the
// same bytes never go over the wire twice, and extraction stays
// deterministic for a fixed byte stream.
type Loader struct {
	extractor model.TextExtractor
	cacheDir  string
	log       *slog.Logger
}

func NewLoader(extractor model.TextExtractor, cacheDir string) *Loader {
	return &Loader{
		extractor: extractor,
		cacheDir:  cacheDir,
		log:       logger.WithComponent("pdftext"),
	}
}

// Load reads the file at path and returns its extracted text. A missing
// file fails with ErrNotFound. Callers must tolerate imperfect text: layout
// is lost and reading order is not guaranteed.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("pdf %s: %w", path, model.ErrNotFound)
		}
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}

	key := contentHash(data)
	cachePath := filepath.Join(l.cacheDir, key+".md")
	if cached, err := os.ReadFile(cachePath); err == nil {
		return string(cached), nil
	}

	text, err := l.extractor.Extract(ctx, filepath.Base(path), data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	text = normalizeLineEndings(text)

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create extraction cache dir: %w", err)
	}
	if err := os.WriteFile(cachePath, []byte(text), 0o644); err != nil {
		// the extraction still succeeded; a cache write failure only costs
		// a re-extraction next run
		l.log.Warn("write extraction cache failed", "path", cachePath, "error", err)
	}
	return text, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
