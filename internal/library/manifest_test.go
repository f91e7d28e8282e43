package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"paperkb/internal/model"
)

func writeManifest(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest_UTF8(t *testing.T) {
	path := writeManifest(t, []byte("title,pdf_name\nDeep Faces,deep_faces.pdf\nGAN Survey,gan_survey.pdf\n"))

	entries, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Deep Faces" || entries[0].PDFFilename != "deep_faces.pdf" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestLoadManifest_Windows1252(t *testing.T) {
	// typographic apostrophe the way a legacy export writes it
	raw, err := charmap.Windows1252.NewEncoder().Bytes(
		[]byte("title,pdf_name\nParkinson’s Study,parkinsons.pdf\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := writeManifest(t, raw)

	entries, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "Parkinson’s Study" {
		t.Errorf("apostrophe not decoded, got %q", entries[0].Title)
	}
}

func TestLoadManifest_SkipsRowsWithoutPDF(t *testing.T) {
	path := writeManifest(t, []byte("title,pdf_name\nOrphan Title,\nReal Paper,real.pdf\n"))

	entries, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].PDFFilename != "real.pdf" {
		t.Fatalf("expected only the row with a pdf, got %+v", entries)
	}
}

func TestLoadManifest_AltHeaderName(t *testing.T) {
	path := writeManifest(t, []byte("Title,PDF_Filename\nA Paper,a.pdf\n"))

	entries, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].PDFFilename != "a.pdf" {
		t.Fatalf("header aliases not recognized: %+v", entries)
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadManifest_MissingColumns(t *testing.T) {
	path := writeManifest(t, []byte("foo,bar\nx,y\n"))
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing columns")
	}
}
