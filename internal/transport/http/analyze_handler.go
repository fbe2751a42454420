package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dllm "veritas/internal/domain/services/llm"
	"veritas/internal/memory"
)

type analyzeTopicRequest struct {
	Topic        string `json:"topic"`
	SessionID    string `json:"session_id"`
	EnableWebRAG bool   `json:"enable_web_rag"`
	Model        string `json:"model"`
}

// AnalyzeTopic handles POST /analyze_topic: a single-turn analytical
// chat with optional web RAG, no debate state machine involved (spec §6).
func (h *Handlers) AnalyzeTopic(c *fiber.Ctx) error {
	var req analyzeTopicRequest
	if err := c.BodyParser(&req); err != nil || req.Topic == "" {
		return fiber.NewError(fiber.StatusBadRequest, "topic is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	payload, err := h.deps.Manager.BuildContext(c.Context(), memory.Request{
		SystemPrompt: "You are an analytical assistant. Answer the user's question directly and cite evidence as [n] where applicable.",
		CurrentTask:  req.Topic,
		Query:        req.Topic,
		Flags: memory.Flags{
			UseLongTerm:  true,
			UseShortTerm: false,
			EnableWebRAG: req.EnableWebRAG,
			FormatStyle:  "conversational",
		},
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "build context: "+err.Error())
	}

	result, err := h.deps.Gateway.Call(c.Context(), dllm.GenerateRequest{
		Messages: []dllm.Message{{Role: "user", Content: payload.Text}},
		Model:    req.Model,
		Params:   dllm.Params{MaxTokens: 1024},
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "analysis failed: "+err.Error())
	}

	sources := make([]fiber.Map, 0, len(payload.Bundle.Items))
	for _, item := range payload.Bundle.Items {
		sources = append(sources, fiber.Map{
			"index":     item.CitationIdx,
			"url":       item.URL,
			"domain":    item.Domain,
			"snippet":   item.Snippet,
			"authority": item.Authority,
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"analysis":   result.Text,
		"sources":    sources,
		"meta":       fiber.Map{"provider_id": result.ProviderID, "latency_ms": result.LatencyMS},
		"session_id": req.SessionID,
	})
}
