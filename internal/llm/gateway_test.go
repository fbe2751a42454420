package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	dllm "veritas/internal/domain/services/llm"
)

// fakeProvider is a minimal dllm.Provider for exercising Gateway
// fallback ordering without a real HTTP backend.
type fakeProvider struct {
	id      string
	healthy bool

	callRes CompletionResultOrErr
	chunks  []dllm.StreamItem
	// streamDelay, when set, is applied before the first chunk is sent,
	// to exercise the first-token timeout path.
	streamDelay time.Duration
	streamErr   error
}

// CompletionResultOrErr bundles a Call outcome for test setup.
type CompletionResultOrErr struct {
	res dllm.CompletionResult
	err error
}

func (p *fakeProvider) ID() string      { return p.id }
func (p *fakeProvider) Healthy() bool   { return p.healthy }

func (p *fakeProvider) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	return p.callRes.res, p.callRes.err
}

func (p *fakeProvider) Stream(ctx context.Context, req dllm.GenerateRequest) (<-chan dllm.StreamItem, error) {
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	out := make(chan dllm.StreamItem)
	go func() {
		defer close(out)
		if p.streamDelay > 0 {
			time.Sleep(p.streamDelay)
		}
		for _, item := range p.chunks {
			out <- item
		}
	}()
	return out, nil
}

func TestGateway_Call_FallsBackOnAdvancingError(t *testing.T) {
	first := &fakeProvider{
		id: "a", healthy: true,
		callRes: CompletionResultOrErr{err: NewProviderError("a", KindRateLimit, errors.New("429"))},
	}
	second := &fakeProvider{
		id: "b", healthy: true,
		callRes: CompletionResultOrErr{res: dllm.CompletionResult{Text: "ok from b", ProviderID: "b"}},
	}
	gw := NewGateway([]dllm.Provider{first, second}, time.Second)

	res, err := gw.Call(context.Background(), dllm.GenerateRequest{})
	if err != nil {
		t.Fatalf("Call: unexpected error %v", err)
	}
	if res.ProviderID != "b" {
		t.Errorf("want fallback to provider b, got %q", res.ProviderID)
	}
}

func TestGateway_Call_TerminalErrorStopsFallback(t *testing.T) {
	first := &fakeProvider{
		id: "a", healthy: true,
		callRes: CompletionResultOrErr{err: NewProviderError("a", KindBadRequest, errors.New("bad request"))},
	}
	second := &fakeProvider{
		id: "b", healthy: true,
		callRes: CompletionResultOrErr{res: dllm.CompletionResult{Text: "should not be reached", ProviderID: "b"}},
	}
	gw := NewGateway([]dllm.Provider{first, second}, time.Second)

	_, err := gw.Call(context.Background(), dllm.GenerateRequest{})
	if err == nil {
		t.Fatal("expected a terminal error, got nil")
	}
	if KindOf(err) != KindBadRequest {
		t.Errorf("want KindBadRequest, got %s", KindOf(err))
	}
}

func TestGateway_Call_NoProvidersAvailable(t *testing.T) {
	unhealthy := &fakeProvider{id: "a", healthy: false}
	gw := NewGateway([]dllm.Provider{unhealthy}, time.Second)

	_, err := gw.Call(context.Background(), dllm.GenerateRequest{})
	if !errors.Is(err, ErrNoProvidersAvailable) {
		t.Errorf("want ErrNoProvidersAvailable, got %v", err)
	}
}

func TestGateway_Stream_MidStreamErrorWrappedAsAborted(t *testing.T) {
	p := &fakeProvider{
		id: "a", healthy: true,
		chunks: []dllm.StreamItem{
			{Chunk: dllm.Chunk{DeltaText: "hello "}},
			{Err: errors.New("connection reset")},
		},
	}
	gw := NewGateway([]dllm.Provider{p}, time.Second)

	ch, err := gw.Stream(context.Background(), dllm.GenerateRequest{})
	if err != nil {
		t.Fatalf("Stream: unexpected error %v", err)
	}

	var gotChunk bool
	var finalErr error
	for item := range ch {
		if item.Err != nil {
			finalErr = item.Err
			continue
		}
		if item.Chunk.DeltaText != "" {
			gotChunk = true
		}
	}

	if !gotChunk {
		t.Fatal("expected at least one chunk before the mid-stream error")
	}
	if finalErr == nil {
		t.Fatal("expected a terminal error on the channel")
	}
	if !errors.Is(finalErr, ErrStreamAborted) {
		t.Errorf("want errors.Is(err, ErrStreamAborted), got %v", finalErr)
	}
}

func TestGateway_Stream_FallsBackBeforeCommit(t *testing.T) {
	first := &fakeProvider{
		id: "a", healthy: true,
		streamErr: NewProviderError("a", KindServerError, errors.New("503")),
	}
	second := &fakeProvider{
		id: "b", healthy: true,
		chunks: []dllm.StreamItem{
			{Chunk: dllm.Chunk{DeltaText: "from b"}},
			{Chunk: dllm.Chunk{DeltaText: "", Done: true}},
		},
	}
	gw := NewGateway([]dllm.Provider{first, second}, time.Second)

	ch, err := gw.Stream(context.Background(), dllm.GenerateRequest{})
	if err != nil {
		t.Fatalf("Stream: unexpected error %v", err)
	}

	var text string
	for item := range ch {
		if item.Err != nil {
			t.Fatalf("unexpected stream error: %v", item.Err)
		}
		text += item.Chunk.DeltaText
	}
	if text != "from b" {
		t.Errorf("want fallback provider's content, got %q", text)
	}
}
