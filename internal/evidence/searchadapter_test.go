package evidence

import (
	"time"

	"testing"

	"veritas/internal/evidence/search"
)

func TestTavilyBackend_SatisfiesSearchBackend(t *testing.T) {
	var _ SearchBackend = (*TavilyBackend)(nil)
}

func TestNarrowCandidates_DropsRankingFields(t *testing.T) {
	published := time.Now()
	hits := []search.Candidate{
		{Title: "T1", URL: "https://example.com/1", Snippet: "s1", Score: 0.9, PublishedAt: &published},
		{Title: "T2", URL: "https://example.com/2", Snippet: "s2", Score: 0.1},
	}

	got := narrowCandidates(hits)
	if len(got) != 2 {
		t.Fatalf("want 2 candidates, got %d", len(got))
	}
	for i, c := range got {
		if c.Title != hits[i].Title || c.URL != hits[i].URL || c.Snippet != hits[i].Snippet {
			t.Errorf("candidate %d: want {%s,%s,%s}, got %+v", i, hits[i].Title, hits[i].URL, hits[i].Snippet, c)
		}
	}
}

func TestNarrowCandidates_EmptyInput(t *testing.T) {
	got := narrowCandidates(nil)
	if len(got) != 0 {
		t.Fatalf("want 0 candidates for nil input, got %d", len(got))
	}
}
