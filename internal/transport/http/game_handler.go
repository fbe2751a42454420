package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	dllm "veritas/internal/domain/services/llm"
)

type headlinesResponse struct {
	Items       []string `json:"items"`
	AnswerIndex int      `json:"answerIndex"`
}

const headlineGamePrompt = `Generate exactly 4 short news headlines about current events: 3 must be real and plausible, 1 must be a subtle satire/fabrication. Respond with ONLY a JSON object: {"items": ["h1","h2","h3","h4"], "answerIndex": <0-based index of the satire headline>}.`

// GameHeadlines handles GET /api/game/headlines: 4 headlines with one
// satire answer, used by the "spot the fake" mini-game (spec §6).
func (h *Handlers) GameHeadlines(c *fiber.Ctx) error {
	result, err := h.deps.Gateway.Call(c.Context(), dllm.GenerateRequest{
		Messages: []dllm.Message{{Role: "user", Content: headlineGamePrompt}},
		Params:   dllm.Params{MaxTokens: 400},
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "headline generation failed: "+err.Error())
	}

	var parsed headlinesResponse
	raw := extractBraces(result.Text)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || len(parsed.Items) != 4 {
		return fiber.NewError(fiber.StatusBadGateway, "headline generation returned malformed output")
	}

	return c.JSON(fiber.Map{"items": parsed.Items, "answerIndex": parsed.AnswerIndex})
}

// extractBraces keeps the span from the first '{' to the last '}',
// trimming surrounding prose and tolerating a model that ignores the "JSON only" instruction.
func extractBraces(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
