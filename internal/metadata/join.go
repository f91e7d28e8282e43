package metadata

import (
	"strings"

	"paperkb/internal/model"
)

var titleReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// NormalizeTitle folds a title to a stable join key: lowercase, ASCII
// punctuation variants, collapsed whitespace.
func NormalizeTitle(title string) string {
	title = titleReplacer.Replace(title)
	title = strings.ToLower(strings.TrimSpace(title))
	return strings.Join(strings.Fields(title), " ")
}

// MatchRecords joins bibliographic records to manifest entries by normalized
// title and returns a mapping keyed by PDF filename. Positional alignment
// between the two lists is deliberately not used: if the reference manager
// reorders its items, a positional join silently attaches metadata to the
// wrong document. A manifest entry with no matching record is simply absent
// from the result, which callers treat as "no metadata".
func MatchRecords(entries []model.ManifestEntry, records []model.BibliographicRecord) map[string]model.BibliographicRecord {
	byTitle := make(map[string]model.BibliographicRecord, len(records))
	for _, rec := range records {
		key := NormalizeTitle(rec.Title)
		if key == "" {
			continue
		}
		if _, exists := byTitle[key]; !exists {
			byTitle[key] = rec
		}
	}

	matched := make(map[string]model.BibliographicRecord)
	for _, entry := range entries {
		key := NormalizeTitle(entry.Title)
		if key == "" {
			continue
		}
		if rec, ok := byTitle[key]; ok {
			matched[entry.PDFFilename] = rec
		}
	}
	return matched
}
