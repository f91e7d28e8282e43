package pdftext

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paperkb/internal/model"
)

func TestDoclingExtract(t *testing.T) {
	var got doclingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1alpha/convert/source" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "success",
			"document": map[string]any{"md_content": "# Extracted\n\nBody."},
		})
	}))
	defer srv.Close()

	c := NewDoclingClient(srv.URL, time.Second)
	text, err := c.Extract(context.Background(), "paper.pdf", []byte("%PDF bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "# Extracted\n\nBody." {
		t.Errorf("text = %q", text)
	}
	if len(got.Sources) != 1 || got.Sources[0].Filename != "paper.pdf" {
		t.Fatalf("unexpected request sources: %+v", got.Sources)
	}
	decoded, err := base64.StdEncoding.DecodeString(got.Sources[0].Base64String)
	if err != nil || string(decoded) != "%PDF bytes" {
		t.Errorf("payload not base64 of the input: %v %q", err, decoded)
	}
	if len(got.Options.ToFormats) != 1 || got.Options.ToFormats[0] != "md" {
		t.Errorf("to_formats = %v", got.Options.ToFormats)
	}
}

func TestDoclingExtract_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewDoclingClient(srv.URL, time.Second)
	_, err := c.Extract(context.Background(), "p.pdf", []byte("x"))
	if !model.IsRetryable(err) {
		t.Fatalf("500 should be retryable, got %v", err)
	}
}

func TestDoclingExtract_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewDoclingClient(srv.URL, time.Second)
	_, err := c.Extract(context.Background(), "p.pdf", []byte("x"))
	var pe *model.ProviderError
	if !errors.As(err, &pe) || pe.Retryable {
		t.Fatalf("422 must be a non-retryable provider error: %v", err)
	}
}

func TestDoclingExtract_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"document": map[string]any{"md_content": "  "}})
	}))
	defer srv.Close()

	c := NewDoclingClient(srv.URL, time.Second)
	if _, err := c.Extract(context.Background(), "p.pdf", []byte("x")); err == nil {
		t.Fatal("expected error for empty conversion result")
	}
}
