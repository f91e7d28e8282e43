package library

import (
	"sort"
	"strings"
)

// DefaultRewrites maps raw filename fragments from the manifest to the
// fragments actually present on disk. The reference manager normalizes
// typographic punctuation differently from the filesystem export, so a few
// titles never resolve without correction. This is a finite, auditable list,
// not general normalization; extend it only for a concrete observed mismatch.
var DefaultRewrites = map[string]string{
	"Parkinsons's": "Parkinsons’s",
	"diffusion-a":  "diffusion–a",
}

// ApplyRewrites replaces each known raw fragment in name with its corrected
// form. Replacement order is deterministic (sorted by raw fragment).
func ApplyRewrites(name string, rewrites map[string]string) string {
	if len(rewrites) == 0 {
		return name
	}
	keys := make([]string, 0, len(rewrites))
	for k := range rewrites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, raw := range keys {
		if strings.Contains(name, raw) {
			name = strings.ReplaceAll(name, raw, rewrites[raw])
		}
	}
	return name
}
