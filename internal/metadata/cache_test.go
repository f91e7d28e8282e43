package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"paperkb/internal/model"
)

func TestCache_GetMissingIsNotError(t *testing.T) {
	c := NewCache(t.TempDir())
	_, ok, err := c.Get("absent.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent entry")
	}
}

func TestCache_PutThenGet(t *testing.T) {
	c := NewCache(t.TempDir())
	rec := model.BibliographicRecord{Key: "ABC123", Title: "A Paper", Authors: []string{"Doe"}, Year: 2023}
	if err := c.Put("a_paper.pdf", rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get("a_paper.pdf")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Key != "ABC123" || got.Title != "A Paper" || got.Year != 2023 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestCache_PutIsWriteOnce(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	if err := c.Put("p.pdf", model.BibliographicRecord{Key: "FIRST"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put("p.pdf", model.BibliographicRecord{Key: "SECOND"}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, _, err := c.Get("p.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Key != "FIRST" {
		t.Errorf("existing entry was overwritten: %+v", got)
	}
}

func TestCache_EntryNamedAfterBasename(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	if err := c.Put("some_paper.pdf", model.BibliographicRecord{Key: "K"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "some_paper.json")); err != nil {
		t.Errorf("expected some_paper.json on disk: %v", err)
	}
}

func TestCache_CorruptEntryIsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(dir)
	if _, _, err := c.Get("bad.pdf"); err == nil {
		t.Fatal("expected error for corrupt entry")
	}
}
