// Package llm implements the Provider Adapter (C1) and LLM Gateway (C2)
// infrastructure from spec §4.1/§4.2: classified provider errors, a
// round-robin credential pool with exponential cooldown, ordered
// provider fallback, and per-provider metrics. Adapted from the
// teacher's provider/streaming split (internal/service/llm/providers/*
// and internal/service/llm/streaming/service.go) but collapsed into a
// single ordered-fallback Gateway since the teacher never had more than
// one candidate provider per call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	dllm "veritas/internal/domain/services/llm"
)

// ErrNoProvidersAvailable is returned when no provider in the order is
// healthy, or when every stream closed without producing a chunk; when a
// provider was tried and failed, Call returns that provider's error
// instead.
var ErrNoProvidersAvailable = errors.New("llm: no providers available")

// Gateway tries providers in a fixed preference order, advancing to the
// next candidate only on recoverable error kinds (spec §4.2). It never
// switches providers mid-stream once the first chunk has been emitted.
type Gateway struct {
	providers []dllm.Provider
	metrics   *Metrics
	firstTok  time.Duration
}

// NewGateway builds a Gateway over providers in preference order.
// firstTokenBudget bounds how long Stream waits for a provider's first
// chunk before treating it as a timeout and advancing (spec §4.2,
// "first_token_budget").
func NewGateway(providers []dllm.Provider, firstTokenBudget time.Duration) *Gateway {
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID()
	}
	return &Gateway{providers: providers, metrics: NewMetrics(ids), firstTok: firstTokenBudget}
}

// Metrics exposes the Gateway's per-provider counters.
func (g *Gateway) Metrics() *Metrics { return g.metrics }

// Call performs a blocking generation, advancing through providers in
// order on recoverable errors.
func (g *Gateway) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	var lastErr error
	for _, p := range g.providers {
		if !p.Healthy() {
			continue
		}
		g.metrics.RecordCall(p.ID())
		res, err := p.Call(ctx, req)
		if err == nil {
			g.metrics.RecordSuccess(p.ID())
			return res, nil
		}
		g.metrics.RecordFailure(p.ID())
		lastErr = err
		if !KindOf(err).Advances() {
			return dllm.CompletionResult{}, err
		}
		g.metrics.RecordFallback(p.ID())
	}
	if lastErr != nil {
		return dllm.CompletionResult{}, lastErr
	}
	return dllm.CompletionResult{}, ErrNoProvidersAvailable
}

// Stream performs a streaming generation. It opens each candidate
// provider's stream in turn and waits up to firstTok for the first
// chunk; if that budget elapses, or the provider returns a recoverable
// error before producing a chunk, it advances to the next provider. Once
// a chunk has been forwarded to the caller, the provider is committed
// for the rest of the turn — no mid-stream switching (spec §4.2).
func (g *Gateway) Stream(ctx context.Context, req dllm.GenerateRequest) (<-chan dllm.StreamItem, error) {
	out := make(chan dllm.StreamItem)

	providers := make([]dllm.Provider, 0, len(g.providers))
	for _, p := range g.providers {
		if p.Healthy() {
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		close(out)
		return out, ErrNoProvidersAvailable
	}

	go func() {
		defer close(out)
		var lastErr error
		for _, p := range providers {
			g.metrics.RecordCall(p.ID())
			committed, err := g.streamOne(ctx, p, req, out)
			if committed {
				return
			}
			g.metrics.RecordFailure(p.ID())
			lastErr = err
			if err != nil && !KindOf(err).Advances() {
				out <- dllm.StreamItem{Err: err}
				return
			}
			g.metrics.RecordFallback(p.ID())
		}
		if lastErr == nil {
			lastErr = ErrNoProvidersAvailable
		}
		out <- dllm.StreamItem{Err: lastErr}
	}()

	return out, nil
}

// streamOne drives a single provider's stream to completion. It returns
// committed=true once at least one chunk has reached the caller — from
// that point the Gateway no longer considers falling back.
func (g *Gateway) streamOne(ctx context.Context, p dllm.Provider, req dllm.GenerateRequest, out chan<- dllm.StreamItem) (committed bool, err error) {
	items, startErr := p.Stream(ctx, req)
	if startErr != nil {
		return false, startErr
	}

	budget := g.firstTok
	if budget <= 0 {
		budget = 20 * time.Second
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return committed, ctx.Err()
		case <-timer.C:
			if !committed {
				return false, NewProviderError(p.ID(), KindTimeout, context.DeadlineExceeded)
			}
			// Already committed: a late tick after the first chunk is a
			// no-op, the consumer drives pacing from here on.
		case item, ok := <-items:
			if !ok {
				if committed {
					g.metrics.RecordSuccess(p.ID())
				}
				return committed, nil
			}
			if item.Err != nil {
				if !committed {
					return false, item.Err
				}
				// A mid-stream error after at least one chunk has already
				// reached the caller truncates the turn rather than
				// failing it outright (spec §4.2): surface stream_aborted
				// so the orchestrator/transport can distinguish this from
				// a pre-commit provider failure.
				abortErr := fmt.Errorf("%w: %v", ErrStreamAborted, item.Err)
				out <- dllm.StreamItem{Err: abortErr}
				return true, abortErr
			}
			if !committed {
				committed = true
				timer.Stop()
			}
			out <- item
		}
	}
}
