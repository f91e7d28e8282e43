package library

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"paperkb/internal/model"
)

// LoadManifest reads the library manifest CSV. The file is the source of
// truth for which documents exist and is read once per run.
//
// Exports from legacy reference managers frequently arrive in Windows-1252
// rather than UTF-8 (titles with typographic apostrophes and accented
// characters), so non-UTF-8 input is transparently decoded.
func LoadManifest(path string) ([]model.ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode manifest as windows-1252: %w", err)
		}
		raw = decoded
	}

	return parseManifest(strings.NewReader(string(raw)))
}

func parseManifest(r io.Reader) ([]model.ManifestEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}
	titleCol, pdfCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			titleCol = i
		case "pdf_name", "pdf_filename":
			pdfCol = i
		}
	}
	if titleCol < 0 || pdfCol < 0 {
		return nil, fmt.Errorf("manifest header must contain title and pdf_name columns, got %v", header)
	}

	var entries []model.ManifestEntry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row: %w", err)
		}
		if pdfCol >= len(row) {
			continue
		}
		pdfName := strings.TrimSpace(row[pdfCol])
		if pdfName == "" {
			continue
		}
		title := ""
		if titleCol < len(row) {
			title = strings.TrimSpace(row[titleCol])
		}
		entries = append(entries, model.ManifestEntry{Title: title, PDFFilename: pdfName})
	}
	return entries, nil
}
