package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paperkb/internal/model"
)

const zoteroPageSize = 100

// ZoteroClient fetches bibliographic items from the Zotero web API for a
// user library, optionally scoped to a single collection.
type ZoteroClient struct {
	baseURL string
	userID  string
	apiKey  string
	httpc   *http.Client
}

func NewZoteroClient(baseURL, userID, apiKey string, timeout time.Duration) (*ZoteroClient, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: Zotero user ID and API key must be set", model.ErrConfiguration)
	}
	if baseURL == "" {
		baseURL = "https://api.zotero.org"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ZoteroClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// FetchCollection retrieves every top-level item of the collection, paging
// until the API returns a short page. Pass an empty collectionID for the
// whole library.
func (z *ZoteroClient) FetchCollection(ctx context.Context, collectionID string) ([]model.BibliographicRecord, error) {
	var records []model.BibliographicRecord
	start := 0
	for {
		page, err := z.fetchPage(ctx, collectionID, start)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if len(page) < zoteroPageSize {
			return records, nil
		}
		start += len(page)
	}
}

func (z *ZoteroClient) fetchPage(ctx context.Context, collectionID string, start int) ([]model.BibliographicRecord, error) {
	endpoint := fmt.Sprintf("%s/users/%s/items/top", z.baseURL, url.PathEscape(z.userID))
	if collectionID != "" {
		endpoint = fmt.Sprintf("%s/users/%s/collections/%s/items/top",
			z.baseURL, url.PathEscape(z.userID), url.PathEscape(collectionID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("limit", strconv.Itoa(zoteroPageSize))
	q.Set("start", strconv.Itoa(start))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Zotero-API-Key", z.apiKey)

	resp, err := z.httpc.Do(req)
	if err != nil {
		return nil, &model.ProviderError{Code: "zotero_unreachable", Message: err.Error(), Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &model.ProviderError{
			Code:       "zotero_status",
			Message:    fmt.Sprintf("GET %s: %s: %s", req.URL.Path, resp.Status, strings.TrimSpace(string(body))),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}

	var items []zoteroItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode zotero response: %w", err)
	}

	records := make([]model.BibliographicRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.toRecord())
	}
	return records, nil
}

type zoteroItem struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
}

func (it zoteroItem) toRecord() model.BibliographicRecord {
	rec := model.BibliographicRecord{Key: it.Key, Raw: it.Data}
	if title, ok := it.Data["title"].(string); ok {
		rec.Title = title
	}
	if creators, ok := it.Data["creators"].([]any); ok {
		for _, c := range creators {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			first, _ := cm["firstName"].(string)
			last, _ := cm["lastName"].(string)
			name := strings.TrimSpace(first + " " + last)
			if name == "" {
				name, _ = cm["name"].(string)
			}
			if name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
	}
	if tags, ok := it.Data["tags"].([]any); ok {
		for _, t := range tags {
			tm, ok := t.(map[string]any)
			if !ok {
				continue
			}
			if tag, ok := tm["tag"].(string); ok && tag != "" {
				rec.Tags = append(rec.Tags, tag)
			}
		}
	}
	if date, ok := it.Data["date"].(string); ok {
		rec.Year = parseYear(date)
	}
	return rec
}

// parseYear pulls the first four-digit year out of a free-form date string.
func parseYear(date string) int {
	for i := 0; i+4 <= len(date); i++ {
		if y, err := strconv.Atoi(date[i : i+4]); err == nil && y >= 1000 && y <= 2999 {
			return y
		}
	}
	return 0
}
