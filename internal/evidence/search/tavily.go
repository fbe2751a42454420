// Package search implements the Evidence Gatherer's candidate-URL
// discovery backend. Adapted directly from the teacher's
// internal/service/llm/tools/external/tavily_client.go, trimmed of the
// generic SearchClient/SearchOptions interface layer the teacher built
// for pluggable tool backends — the debate engine has exactly one
// candidate-search backend.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.tavily.com/search"
	defaultTimeout = 30 * time.Second
	maxResultsCap  = 20
)

// Candidate is one search hit: a candidate URL for the Evidence Gatherer
// to fetch and rank.
type Candidate struct {
	Title       string
	URL         string
	Snippet     string
	Score       float64
	PublishedAt *time.Time
}

// Backend is a Tavily-backed candidate search client.
type Backend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New builds a search Backend over the given Tavily API key.
func New(apiKey string) *Backend {
	return &Backend{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Search returns up to maxResults candidate URLs for query.
func (b *Backend) Search(ctx context.Context, query string, maxResults int) ([]Candidate, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	payload := map[string]any{
		"api_key":     b.apiKey,
		"query":       query,
		"max_results": maxResults,
		"search_depth": "basic",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: parse response: %w", err)
	}

	out := make([]Candidate, len(parsed.Results))
	for i, r := range parsed.Results {
		out[i] = Candidate{Title: r.Title, URL: r.URL, Snippet: r.Content, Score: r.Score}
		if r.PublishedDate != "" {
			if t, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
				out[i].PublishedAt = &t
			}
		}
	}
	return out, nil
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
	Query   string         `json:"query"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}
