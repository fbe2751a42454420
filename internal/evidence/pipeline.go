package evidence

import (
	"context"
	"time"

	"veritas/internal/evidence/cache"
	"veritas/internal/evidence/fetcher"
	"veritas/internal/evidence/summarizer"

	"veritas/internal/domain/models/debate"
)

// Pipeline implements URLPipeline: the Cache→Fetcher→Summarizer chain
// (spec §4.3-§4.5). A cache hit short-circuits the fetch/summarize
// steps entirely; a miss fetches, summarizes, and writes back before
// returning, so the next lookup for the same URL is a hit.
type Pipeline struct {
	cache      *cache.Cache
	fetcher    *fetcher.Fetcher
	summarizer *summarizer.Summarizer
}

// NewPipeline builds a Pipeline over the three evidence-gathering stages.
func NewPipeline(c *cache.Cache, f *fetcher.Fetcher, s *summarizer.Summarizer) *Pipeline {
	return &Pipeline{cache: c, fetcher: f, summarizer: s}
}

// FetchAndSummarize resolves rawURL to a summary, reporting whether it
// came from cache or a live fetch (spec §3 EvidenceItem.method).
func (p *Pipeline) FetchAndSummarize(ctx context.Context, rawURL string) (string, debate.Method, error) {
	if entry, ok := p.cache.Get(rawURL); ok {
		return entry.Summary, debate.MethodCache, nil
	}

	result, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", debate.MethodLive, err
	}

	summary := p.summarizer.Summarize(ctx, result.RawText)
	p.cache.Put(rawURL, summary, result.RawText, time.Now())

	return summary, debate.MethodLive, nil
}
