// Package openrouter implements the Provider Adapter (C1) contract
// against OpenRouter's OpenAI-compatible /chat/completions endpoint.
// The teacher's own OpenRouter adapter
// (internal/service/llm/adapters/openrouter_adapter.go) wraps a private,
// unpublished package (github.com/haowjy/meridian-llm-go) that cannot be
// depended on here; this adapter instead talks the same
// unified_api.go wire schema directly over net/http, the way the
// teacher's http-based tool clients (tools/external/tavily_client.go)
// call out to a JSON API.
package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veritas/internal/config"
	"veritas/internal/llm"

	dllm "veritas/internal/domain/services/llm"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	providerID     = "openrouter"
)

// Adapter is the OpenRouter-backed Provider implementation.
type Adapter struct {
	creds      *llm.CredentialPool
	httpClient *http.Client
	baseURL    string
}

// New builds an OpenRouter Adapter over the given API keys.
func New(apiKeys []string) *Adapter {
	return &Adapter{
		creds:      llm.NewCredentialPool(apiKeys),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

func (a *Adapter) ID() string    { return providerID }
func (a *Adapter) Healthy() bool { return a.creds.Healthy() }

func toChatMessages(req dllm.GenerateRequest) []chatMessage {
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.Params.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.Params.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}

func (a *Adapter) buildRequest(req dllm.GenerateRequest, stream bool) chatRequest {
	return chatRequest{
		Model:       req.Model,
		Messages:    toChatMessages(req),
		Stream:      stream,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		Stop:        req.Params.Stop,
	}
}

// Call performs a blocking generation, retrying up to
// config.MaxProviderRetries times on transient_network errors with a
// short backoff (spec §4.1).
func (a *Adapter) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	var lastErr error
	for attempt := 0; attempt <= config.MaxProviderRetries; attempt++ {
		res, err := a.callOnce(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if llm.KindOf(err) != llm.KindTransientNetwork {
			return dllm.CompletionResult{}, err
		}
		select {
		case <-ctx.Done():
			return dllm.CompletionResult{}, ctx.Err()
		case <-time.After(backoffFor(attempt)):
		}
	}
	return dllm.CompletionResult{}, lastErr
}

func backoffFor(attempt int) time.Duration {
	d := 250 * time.Millisecond
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	if d > time.Second {
		d = time.Second
	}
	return d
}

func (a *Adapter) callOnce(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	cred, ok := a.creds.Next(time.Now())
	if !ok {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindAuthError, fmt.Errorf("no credential available"))
	}

	body, _ := json.Marshal(a.buildRequest(req, false))
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindBadRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.creds.MarkFailure(cred.ID, time.Now())
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, classifyNetErr(err), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyHTTPStatus(resp.StatusCode)
		if kind == llm.KindRateLimit || kind == llm.KindAuthError {
			a.creds.MarkFailure(cred.ID, time.Now())
		}
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, kind, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindUnknown, err)
	}
	if parsed.Error != nil {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, classifyHTTPStatus(parsed.Error.Code), errors.New(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindUnknown, fmt.Errorf("empty choices"))
	}

	a.creds.MarkSuccess(cred.ID)
	return dllm.CompletionResult{
		Text:         parsed.Choices[0].Message.Content,
		TokensIn:     parsed.Usage.PromptTokens,
		TokensOut:    parsed.Usage.CompletionTokens,
		LatencyMS:    time.Since(start).Milliseconds(),
		ProviderID:   providerID,
		CredentialID: cred.ID,
	}, nil
}

// Stream performs a streaming generation over OpenRouter's SSE
// "data: {...}\n\n" framing, launching a goroutine that feeds a
// buffered channel — the same shape as the teacher's
// providers/anthropic/streaming.go StreamResponse.
func (a *Adapter) Stream(ctx context.Context, req dllm.GenerateRequest) (<-chan dllm.StreamItem, error) {
	cred, ok := a.creds.Next(time.Now())
	if !ok {
		return nil, llm.NewProviderError(providerID, llm.KindAuthError, fmt.Errorf("no credential available"))
	}

	body, _ := json.Marshal(a.buildRequest(req, true))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewProviderError(providerID, llm.KindBadRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.creds.MarkFailure(cred.ID, time.Now())
		return nil, llm.NewProviderError(providerID, classifyNetErr(err), err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		kind := classifyHTTPStatus(resp.StatusCode)
		if kind == llm.KindRateLimit || kind == llm.KindAuthError {
			a.creds.MarkFailure(cred.ID, time.Now())
		}
		return nil, llm.NewProviderError(providerID, kind, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	out := make(chan dllm.StreamItem, 10)
	go func() {
		defer resp.Body.Close()
		defer close(out)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		sawChunk := false
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				break
			}
			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				out <- dllm.StreamItem{Err: llm.NewProviderError(providerID, classifyHTTPStatus(chunk.Error.Code), errors.New(chunk.Error.Message))}
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			c := chunk.Choices[0]
			sawChunk = true
			out <- dllm.StreamItem{Chunk: dllm.Chunk{
				DeltaText:    c.Delta.Content,
				Done:         c.FinishReason != "",
				FinishReason: c.FinishReason,
			}}
		}
		if err := scanner.Err(); err != nil {
			out <- dllm.StreamItem{Err: llm.NewProviderError(providerID, llm.KindTransientNetwork, err)}
			return
		}
		if sawChunk {
			a.creds.MarkSuccess(cred.ID)
		}
	}()

	return out, nil
}

func classifyHTTPStatus(code int) llm.Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return llm.KindRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return llm.KindAuthError
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return llm.KindTimeout
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return llm.KindBadRequest
	case code >= 500:
		return llm.KindServerError
	default:
		return llm.KindUnknown
	}
}

type timeouter interface{ Timeout() bool }

func classifyNetErr(err error) llm.Kind {
	if err == nil {
		return llm.KindUnknown
	}
	var te timeouter
	if errors.As(err, &te) && te.Timeout() {
		return llm.KindTimeout
	}
	return llm.KindTransientNetwork
}
