package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"paperkb/internal/model"
)

// Client talks to an OpenAI-compatible API and implements both
// model.Generator (chat completions) and model.Embedder (embeddings).
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpc      *http.Client

	mu  sync.Mutex
	dim int
}

// Config for the client. APIKey is required; the embedding dimension is
// seeded from configuration so the vector collection can be created before
// the first embedding call, then corrected from observed vectors.
type Config struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	EmbedDim   int
	Timeout    time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", model.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-5-mini"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		httpc:      &http.Client{Timeout: cfg.Timeout},
		dim:        cfg.EmbedDim,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends a system instruction plus user message and returns the
// first choice verbatim.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	reqBody := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response has no choices", model.ErrMalformedOutput)
	}
	return out.Choices[0].Message.Content, nil
}

// Embed embeds every input independently, preserving order. The observed
// vector length becomes the reported dimension.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	reqBody := struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{Model: c.embedModel, Input: inputs}

	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: embeddings response has %d vectors for %d inputs",
			model.ErrMalformedOutput, len(out.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for _, item := range out.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", model.ErrMalformedOutput, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for input %d", model.ErrMalformedOutput, i)
		}
	}

	c.mu.Lock()
	c.dim = len(vectors[0])
	c.mu.Unlock()
	return vectors, nil
}

// Dimension returns the embedding vector length: the configured value until
// the first Embed call, the observed value afterwards.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dim
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s: %w", path, model.ErrTimeout)
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			// http.Client.Timeout fires without touching ctx
			return fmt.Errorf("%s: %w", path, model.ErrTimeout)
		}
		return &model.ProviderError{Code: "llm_unreachable", Message: err.Error(), Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &model.ProviderError{
			Code:       "llm_status",
			Message:    fmt.Sprintf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(raw))),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
