package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// SerperClient fetches top result snippets from the Serper search API.
type SerperClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewSerperClient(apiKey string) *SerperClient {
	return &SerperClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://google.serper.dev",
		apiKey:     apiKey,
	}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 3
	}
	body, _ := json.Marshal(map[string]any{"q": query, "num": limit})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]string, 0, limit)
	for _, item := range sr.Organic {
		snippet := strings.TrimSpace(item.Snippet)
		if snippet == "" {
			continue
		}
		out = append(out, snippet)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
