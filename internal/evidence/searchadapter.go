package evidence

import (
	"context"

	"veritas/internal/evidence/search"
)

// TavilyBackend adapts *search.Backend to the SearchBackend contract
// this package defines locally (search.Candidate carries a ranking
// Score and PublishedAt the gatherer doesn't use, so this adapter
// narrows to the fields Gather actually needs rather than widening
// Candidate itself to match a client-specific response shape).
type TavilyBackend struct {
	backend *search.Backend
}

// NewTavilyBackend wraps a Tavily search.Backend as a SearchBackend.
func NewTavilyBackend(apiKey string) *TavilyBackend {
	return &TavilyBackend{backend: search.New(apiKey)}
}

// Search implements SearchBackend.
func (t *TavilyBackend) Search(ctx context.Context, query string, maxResults int) ([]Candidate, error) {
	hits, err := t.backend.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return narrowCandidates(hits), nil
}

// narrowCandidates drops the ranking Score/PublishedAt fields
// search.Candidate carries that the gatherer doesn't use.
func narrowCandidates(hits []search.Candidate) []Candidate {
	out := make([]Candidate, len(hits))
	for i, h := range hits {
		out[i] = Candidate{Title: h.Title, URL: h.URL, Snippet: h.Snippet}
	}
	return out
}
