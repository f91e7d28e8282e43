package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"paperkb/internal/model"
)

// Store is a minimal REST client to a Qdrant collection. Point IDs are
// UUIDv5 values derived from (document_id, sequence_index), so re-upserting
// the same chunk always overwrites the same point.
type Store struct {
	url        string
	apiKey     string
	collection string
	httpc      *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpc:      &http.Client{Timeout: timeout},
	}
}

// PointID returns the stable point identifier for a chunk key.
func PointID(documentID string, sequenceIndex int) string {
	name := fmt.Sprintf("paperkb/%s/%d", documentID, sequenceIndex)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// EnsureCollection creates the collection with the given vector size and
// cosine distance if it does not already exist. Idempotent; meant to run
// once at service construction.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	status, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	status, err = s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return s.statusError("create collection", status)
	}
	return nil
}

// Upsert writes every chunk's vector and payload under its stable point ID.
func (s *Store) Upsert(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		payload := map[string]any{
			"document_id":    c.DocumentID,
			"sequence_index": c.SequenceIndex,
			"text":           c.Text,
		}
		for k, v := range c.Metadata {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      PointID(c.DocumentID, c.SequenceIndex),
			"vector":  c.Embedding,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	status, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return s.statusError("upsert points", status)
	}
	return nil
}

// Search returns up to k scored chunks ordered by descending similarity.
// An empty collection simply yields no results.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]model.ScoredChunk, error) {
	if k <= 0 {
		k = 10
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var out struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		// collection not created yet means nothing is indexed
		return nil, nil
	}
	if status >= 300 {
		return nil, s.statusError("search points", status)
	}

	results := make([]model.ScoredChunk, 0, len(out.Result))
	for _, r := range out.Result {
		chunk := model.DocumentChunk{Metadata: map[string]any{}}
		for key, value := range r.Payload {
			switch key {
			case "document_id":
				chunk.DocumentID, _ = value.(string)
			case "sequence_index":
				if f, ok := value.(float64); ok {
					chunk.SequenceIndex = int(f)
				}
			case "text":
				chunk.Text, _ = value.(string)
			default:
				chunk.Metadata[key] = value
			}
		}
		results = append(results, model.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// HasDocument reports whether any point for documentID is already indexed.
// Used as the skip-if-exists idempotency check during ingestion.
func (s *Store) HasDocument(ctx context.Context, documentID string) (bool, error) {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
		"exact": false,
	}
	var out struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", s.collection), body, &out)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		// collection missing counts as "nothing indexed"
		return false, nil
	}
	if status >= 300 {
		return false, s.statusError("count points", status)
	}
	return out.Result.Count > 0, nil
}

// do executes one request and decodes the response into out when non-nil.
// Network failures surface as transient store errors so callers can back
// off and retry.
func (s *Store) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant %s %s: %v: %w", method, path, err, model.ErrTransientStore)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (s *Store) statusError(op string, status int) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("qdrant %s: status %d: %w", op, status, model.ErrTransientStore)
	}
	return fmt.Errorf("qdrant %s: status %d", op, status)
}
