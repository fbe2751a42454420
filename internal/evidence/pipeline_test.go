package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veritas/internal/domain/models/debate"
	"veritas/internal/evidence/cache"
	"veritas/internal/evidence/fetcher"
	"veritas/internal/evidence/summarizer"

	dllm "veritas/internal/domain/services/llm"
)

type stubGateway struct {
	text string
	err  error
}

func (s *stubGateway) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	if s.err != nil {
		return dllm.CompletionResult{}, s.err
	}
	return dllm.CompletionResult{Text: s.text}, nil
}

func newTestPipeline(t *testing.T, gatewayText string) (*Pipeline, *cache.Cache) {
	t.Helper()
	c := cache.New("", time.Hour, nil) // empty path: pure in-memory, no file I/O
	f := fetcher.New(5 * time.Second)
	s := summarizer.New(&stubGateway{text: gatewayText}, "test-model", 20_000, 400)
	return NewPipeline(c, f, s), c
}

func TestPipeline_CacheHitShortCircuits(t *testing.T) {
	p, c := newTestPipeline(t, "- bullet summary")
	c.Put("https://example.com/article", "cached summary", "raw text", time.Now())

	summary, method, err := p.FetchAndSummarize(context.Background(), "https://example.com/article")
	if err != nil {
		t.Fatalf("FetchAndSummarize: %v", err)
	}
	if summary != "cached summary" {
		t.Errorf("want cached summary, got %q", summary)
	}
	if method != debate.MethodCache {
		t.Errorf("want MethodCache, got %v", method)
	}
}

func TestPipeline_MissFetchesSummarizesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>T</title></head><body><p>Some claim about the world.</p></body></html>`))
	}))
	defer srv.Close()

	p, c := newTestPipeline(t, "- the world has claims")

	summary, method, err := p.FetchAndSummarize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAndSummarize: %v", err)
	}
	if summary != "- the world has claims" {
		t.Errorf("unexpected summary: %q", summary)
	}
	if method != debate.MethodLive {
		t.Errorf("want MethodLive, got %v", method)
	}

	if _, ok := c.Get(srv.URL); !ok {
		t.Error("expected a cache entry to be written back after a live fetch")
	}
}

func TestPipeline_FetchErrorPropagates(t *testing.T) {
	p, _ := newTestPipeline(t, "unused")

	_, _, err := p.FetchAndSummarize(context.Background(), "http://127.0.0.1:1/does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unreachable host")
	}
}
