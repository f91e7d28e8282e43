package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"paperkb/internal/model"
)

// Cache persists one bibliographic record per document so the remote
// reference-manager fetch happens at most once per document. Entries are
// named after the PDF basename with a .json extension.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Get returns the cached record for pdfFilename. A missing entry is a
// normal, low-information state, not an error: the second return value is
// false and the error nil.
func (c *Cache) Get(pdfFilename string) (model.BibliographicRecord, bool, error) {
	raw, err := os.ReadFile(c.entryPath(pdfFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return model.BibliographicRecord{}, false, nil
		}
		return model.BibliographicRecord{}, false, fmt.Errorf("read metadata cache: %w", err)
	}
	var rec model.BibliographicRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.BibliographicRecord{}, false, fmt.Errorf("parse metadata cache entry %s: %w", pdfFilename, err)
	}
	return rec, true, nil
}

// Put writes the record for pdfFilename. Existing entries are left alone:
// the cache is populated once and never refreshed.
func (c *Cache) Put(pdfFilename string, rec model.BibliographicRecord) error {
	path := c.entryPath(pdfFilename)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create metadata cache dir: %w", err)
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", pdfFilename, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write metadata cache entry: %w", err)
	}
	return nil
}

func (c *Cache) entryPath(pdfFilename string) string {
	base := strings.TrimSuffix(filepath.Base(pdfFilename), ".pdf")
	return filepath.Join(c.dir, base+".json")
}
