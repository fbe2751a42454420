package openrouter

// This file mirrors OpenAI's Chat Completions wire schema, which
// OpenRouter exposes as its unified endpoint across many underlying
// models. Adapted from meridian/internal/llm/unified_api.go, trimmed to
// the fields the debate engine's plain-text messages actually need
// (tool/function-calling fields dropped: the debate engine never asks a
// provider to call a tool).

// chatRequest is the request payload for POST /chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// chatMessage is one turn of conversation history.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is a non-streaming completion response.
type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// apiError mirrors OpenRouter's {"error": {"message": "...", "code": ...}} envelope.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// streamChunk is one SSE "data:" line of a streaming completion.
type streamChunk struct {
	ID      string            `json:"id"`
	Model   string            `json:"model"`
	Choices []streamChunkItem `json:"choices"`
	Error   *apiError         `json:"error,omitempty"`
}

type streamChunkItem struct {
	Index        int        `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason string     `json:"finish_reason"`
}

type streamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}
