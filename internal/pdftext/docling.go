package pdftext

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paperkb/internal/model"
)

// DoclingClient converts documents to markdown through a docling-serve
// endpoint. It implements model.TextExtractor.
type DoclingClient struct {
	baseURL string
	httpc   *http.Client
}

func NewDoclingClient(baseURL string, timeout time.Duration) *DoclingClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &DoclingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type doclingRequest struct {
	Options struct {
		ToFormats []string `json:"to_formats"`
	} `json:"options"`
	Sources []doclingSource `json:"sources"`
}

type doclingSource struct {
	Kind         string `json:"kind"`
	Filename     string `json:"filename"`
	Base64String string `json:"base64_string"`
}

type doclingResponse struct {
	Document struct {
		MDContent string `json:"md_content"`
	} `json:"document"`
	Status string `json:"status"`
}

func (c *DoclingClient) Extract(ctx context.Context, name string, data []byte) (string, error) {
	reqBody := doclingRequest{}
	reqBody.Options.ToFormats = []string{"md"}
	reqBody.Sources = []doclingSource{{
		Kind:         "file",
		Filename:     name,
		Base64String: base64.StdEncoding.EncodeToString(data),
	}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode conversion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1alpha/convert/source", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &model.ProviderError{Code: "extractor_unreachable", Message: err.Error(), Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &model.ProviderError{
			Code:       "extractor_status",
			Message:    fmt.Sprintf("convert %s: %s: %s", name, resp.Status, strings.TrimSpace(string(body))),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}

	var out doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode conversion response for %s: %w", name, err)
	}
	if strings.TrimSpace(out.Document.MDContent) == "" {
		return "", fmt.Errorf("conversion of %s returned no content", name)
	}
	return out.Document.MDContent, nil
}
