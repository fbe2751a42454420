package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	dllm "veritas/internal/domain/services/llm"
)

type roleReversalRequest struct {
	PreviousRole string `json:"previous_role"`
	CurrentRole  string `json:"current_role"`
	CurrentTask  string `json:"current_task"`
	DebateID     string `json:"debate_id"`
}

// MemoryRoleReversal handles POST /memory/role/reversal: builds the
// context bundle a reversed role needs to argue against its own prior
// position (spec §8 scenario 4 — "role reversal recall").
func (h *Handlers) MemoryRoleReversal(c *fiber.Ctx) error {
	var req roleReversalRequest
	if err := c.BodyParser(&req); err != nil || req.PreviousRole == "" {
		return fiber.NewError(fiber.StatusBadRequest, "previous_role is required")
	}

	hits, err := h.deps.Manager.RoleHistory(c.Context(), req.PreviousRole, req.DebateID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "role history lookup failed: "+err.Error())
	}

	var contextText string
	for i, hit := range hits {
		contextText += fmt.Sprintf("[%d] (as %s) %s\n", i+1, req.PreviousRole, hit)
	}

	return c.JSON(fiber.Map{
		"success":                true,
		"previous_arguments_count": len(hits),
		"context":                contextText,
		"current_role":           req.CurrentRole,
		"current_task":           req.CurrentTask,
	})
}

type roleHistoryRequest struct {
	Role     string `json:"role"`
	DebateID string `json:"debate_id"`
}

// MemoryRoleHistory handles POST /memory/role/history: retrieves every
// past statement made under the given role (spec §6).
func (h *Handlers) MemoryRoleHistory(c *fiber.Ctx) error {
	var req roleHistoryRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return fiber.NewError(fiber.StatusBadRequest, "role is required")
	}

	hits, err := h.deps.Manager.RoleHistory(c.Context(), req.Role, req.DebateID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "role history lookup failed: "+err.Error())
	}

	return c.JSON(fiber.Map{"count": len(hits), "memories": hits})
}

type consistencyCheckRequest struct {
	Role         string `json:"role"`
	NewStatement string `json:"new_statement"`
	DebateID     string `json:"debate_id"`
}

type consistencyVerdict struct {
	HasInconsistencies bool     `json:"has_inconsistencies"`
	ConsistencyScore   float64  `json:"consistency_score"`
	Warnings           []string `json:"warnings"`
}

// MemoryConsistencyCheck handles POST /memory/consistency/check:
// detects contradictions between new_statement and a role's past
// statements (spec §8 scenario 5).
func (h *Handlers) MemoryConsistencyCheck(c *fiber.Ctx) error {
	var req consistencyCheckRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" || req.NewStatement == "" {
		return fiber.NewError(fiber.StatusBadRequest, "role and new_statement are required")
	}

	related, err := h.deps.Manager.RoleHistory(c.Context(), req.Role, req.DebateID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "role history lookup failed: "+err.Error())
	}
	if len(related) == 0 {
		return c.JSON(fiber.Map{
			"has_inconsistencies": false,
			"consistency_score":   1.0,
			"warnings":            []string{},
			"related_statements":  []string{},
		})
	}

	prompt := fmt.Sprintf(
		"Past statements by role %q:\n%s\n\nNew statement: %q\n\n"+
			"Judge whether the new statement contradicts the past statements. "+
			"Respond with ONLY a JSON object: "+
			`{"has_inconsistencies": bool, "consistency_score": number between 0 and 1 (1=fully consistent), "warnings": [string]}`,
		req.Role, joinNumbered(related), req.NewStatement,
	)

	result, err := h.deps.Gateway.Call(c.Context(), dllm.GenerateRequest{
		Messages: []dllm.Message{{Role: "user", Content: prompt}},
		Params:   dllm.Params{MaxTokens: 400},
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "consistency check failed: "+err.Error())
	}

	var v consistencyVerdict
	if err := json.Unmarshal([]byte(extractBraces(result.Text)), &v); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "consistency check returned malformed output")
	}

	return c.JSON(fiber.Map{
		"has_inconsistencies": v.HasInconsistencies,
		"consistency_score":   v.ConsistencyScore,
		"warnings":            v.Warnings,
		"related_statements":  related,
	})
}

func joinNumbered(items []string) string {
	s := ""
	for i, item := range items {
		s += fmt.Sprintf("%d. %s\n", i+1, item)
	}
	return s
}
