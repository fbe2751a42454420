// Package summarizer implements the Summarizer (C4): a single LLM
// Gateway call reducing fetched raw text to a bullet summary, with a
// fixed fallback when the call fails. Adapted from the teacher's
// single-purpose ResponseGenerator shape
// (internal/service/llm/streaming/response_generator.go), which also
// wraps exactly one Gateway/Provider call behind a narrow method.
package summarizer

import (
	"context"
	"strings"

	dllm "veritas/internal/domain/services/llm"
)

const fallbackSummary = "summary_unavailable"

const systemPrompt = `You summarize web page text for a fact-checking assistant.
Produce 3-6 terse bullet points capturing only verifiable claims, numbers,
dates, and named entities. Omit commentary, marketing language, and
navigation text. Do not include a preamble.`

// Gateway is the subset of llm.Gateway the Summarizer depends on.
type Gateway interface {
	Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error)
}

// Summarizer reduces raw fetched text to a short bullet summary.
type Summarizer struct {
	gateway    Gateway
	model      string
	inputCap   int
	targetSize int
}

// New builds a Summarizer backed by gateway, using model for the single
// summarization call.
func New(gateway Gateway, model string, inputCapBytes, targetBytes int) *Summarizer {
	return &Summarizer{gateway: gateway, model: model, inputCap: inputCapBytes, targetSize: targetBytes}
}

// Summarize reduces rawText to a bullet summary. On any Gateway failure
// it returns the fixed fallback string rather than propagating the
// error — the spec treats summarization as best-effort relative to the
// evidence it's attached to.
func (s *Summarizer) Summarize(ctx context.Context, rawText string) string {
	input := rawText
	if len(input) > s.inputCap {
		input = input[:s.inputCap]
	}
	if strings.TrimSpace(input) == "" {
		return fallbackSummary
	}

	req := dllm.GenerateRequest{
		Model: s.model,
		Params: dllm.Params{
			System:    systemPrompt,
			MaxTokens: s.targetSize / 2, // rough token:byte ratio for a short bullet list
		},
		Messages: []dllm.Message{{Role: "user", Content: input}},
	}

	res, err := s.gateway.Call(ctx, req)
	if err != nil || strings.TrimSpace(res.Text) == "" {
		return fallbackSummary
	}

	text := res.Text
	if len(text) > s.targetSize {
		text = text[:s.targetSize]
	}
	return text
}
