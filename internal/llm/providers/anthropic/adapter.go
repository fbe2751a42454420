// Package anthropic implements the Provider Adapter (C1) contract over
// the official anthropic-sdk-go client. Adapted from
// meridian/internal/service/llm/providers/anthropic/{client.go,streaming.go},
// generalized to support multiple rotating credentials (the teacher held
// exactly one client per Provider) and to classify every SDK error into
// the spec's taxonomy rather than wrapping it as a plain error.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	dllm "veritas/internal/domain/services/llm"
	"veritas/internal/config"
	"veritas/internal/llm"
)

const (
	providerID     = "anthropic"
	modelPrefix    = "claude-"
	defaultMaxToks = 4096
)

// Adapter is the Anthropic-backed Provider implementation.
type Adapter struct {
	creds *llm.CredentialPool
}

// New builds an Anthropic Adapter over the given API keys.
func New(apiKeys []string) *Adapter {
	return &Adapter{creds: llm.NewCredentialPool(apiKeys)}
}

func (a *Adapter) ID() string    { return providerID }
func (a *Adapter) Healthy() bool { return a.creds.Healthy() }

// SupportsModel reports whether model is an Anthropic ("claude-"-prefixed) model.
func (a *Adapter) SupportsModel(model string) bool {
	return len(model) >= len(modelPrefix) && model[:len(modelPrefix)] == modelPrefix
}

func clientFor(secret string) *anthropic.Client {
	c := anthropic.NewClient(option.WithAPIKey(secret))
	return &c
}

func buildParams(req dllm.GenerateRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.Params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxToks
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Params.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Params.Temperature)
	}
	if req.Params.TopP != nil {
		params.TopP = anthropic.Float(*req.Params.TopP)
	}
	if req.Params.TopK != nil {
		params.TopK = anthropic.Int(int64(*req.Params.TopK))
	}
	if len(req.Params.Stop) > 0 {
		params.StopSequences = req.Params.Stop
	}
	if req.Params.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.Params.System}}
	}
	return params
}

// Call performs a blocking generation, retrying internally on
// transient_network errors (spec §4.1: up to MaxProviderRetries, 250ms
// doubling to 1s).
func (a *Adapter) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	if !a.SupportsModel(req.Model) {
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, llm.KindBadRequest, fmt.Errorf("model %q not supported by anthropic adapter", req.Model))
	}

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

	client := clientFor(cred.Secret)
	start := time.Now()
	message, err := client.Messages.New(ctx, buildParams(req))
	if err != nil {
		kind := classifySDKErr(err)
		if kind == llm.KindRateLimit || kind == llm.KindAuthError {
			a.creds.MarkFailure(cred.ID, time.Now())
		}
		return dllm.CompletionResult{}, llm.NewProviderError(providerID, kind, err)
	}

	a.creds.MarkSuccess(cred.ID)
	text := ""
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return dllm.CompletionResult{
		Text:         text,
		TokensIn:     int(message.Usage.InputTokens),
		TokensOut:    int(message.Usage.OutputTokens),
		LatencyMS:    time.Since(start).Milliseconds(),
		ProviderID:   providerID,
		CredentialID: cred.ID,
	}, nil
}

// Stream performs a streaming generation, accumulating the final
// message the way the teacher's streaming.go does via message.Accumulate,
// but emitting only text deltas: the debate engine has no tool-call or
// thinking-block consumer.
func (a *Adapter) Stream(ctx context.Context, req dllm.GenerateRequest) (<-chan dllm.StreamItem, error) {
	if !a.SupportsModel(req.Model) {
		return nil, llm.NewProviderError(providerID, llm.KindBadRequest, fmt.Errorf("model %q not supported by anthropic adapter", req.Model))
	}

	cred, ok := a.creds.Next(time.Now())
	if !ok {
		return nil, llm.NewProviderError(providerID, llm.KindAuthError, fmt.Errorf("no credential available"))
	}

	client := clientFor(cred.Secret)
	params := buildParams(req)

	out := make(chan dllm.StreamItem, 10)
	go func() {
		defer close(out)

		stream := client.Messages.NewStreaming(ctx, params)
		message := anthropic.Message{}
		sawText := false

		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				out <- dllm.StreamItem{Err: llm.NewProviderError(providerID, llm.KindUnknown, err)}
				return
			}

			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok && delta.Delta.Type == "text_delta" {
				sawText = true
				select {
				case <-ctx.Done():
					out <- dllm.StreamItem{Err: ctx.Err()}
					return
				case out <- dllm.StreamItem{Chunk: dllm.Chunk{DeltaText: delta.Delta.Text}}:
				}
			}
		}

		if err := stream.Err(); err != nil {
			kind := classifySDKErr(err)
			if kind == llm.KindRateLimit || kind == llm.KindAuthError {
				a.creds.MarkFailure(cred.ID, time.Now())
			}
			out <- dllm.StreamItem{Err: llm.NewProviderError(providerID, kind, err)}
			return
		}

		if sawText {
			a.creds.MarkSuccess(cred.ID)
		}
		out <- dllm.StreamItem{Chunk: dllm.Chunk{Done: true, FinishReason: string(message.StopReason)}}
	}()

	return out, nil
}

// classifySDKErr maps anthropic-sdk-go's *anthropic.Error (an
// *apierror.Error wrapping an HTTP status) into the spec's Kind
// taxonomy.
func classifySDKErr(err error) llm.Kind {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return llm.KindRateLimit
		case 401, 403:
			return llm.KindAuthError
		case 400, 422:
			return llm.KindBadRequest
		case 408:
			return llm.KindTimeout
		default:
			if apiErr.StatusCode >= 500 {
				return llm.KindServerError
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.KindTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return llm.KindTransientNetwork
	}
	return llm.KindTransientNetwork
}
