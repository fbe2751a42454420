// Package debate implements the Debate Orchestrator (C9): the state
// machine driving one debate's role turns, evidence gathering, verdict
// synthesis, and cancellation, emitting a strictly ordered SSE event
// sequence. Event framing follows
// haowjy-meridian/internal/domain/models/llm/sse_events.go's
// FormatSSE(eventType, data) helper, generalized from per-block to
// per-debate events.
package debate

import (
	"encoding/json"
	"fmt"

	"veritas/internal/domain/models/debate"
)

// SSE event type names (spec §4.9).
const (
	EventMetadata            = "metadata"
	EventStartRole           = "start_role"
	EventToken               = "token"
	EventEndRole             = "end_role"
	EventTurnError           = "turn_error"
	EventRoleReversalStart   = "role_reversal_start"
	EventRoleReversalDone    = "role_reversal_complete"
	EventAnalyticsMetrics    = "analytics_metrics"
	EventFinalVerdict        = "final_verdict"
	EventError               = "error"
	EventEnd                 = "end"
)

// Event is one emitted SSE frame: Name is the "event:" line, Payload is
// marshaled as the "data:" line.
type Event struct {
	Name    string
	Payload any
}

// Format renders e in SSE wire format: "event: <name>\ndata: <json>\n\n".
func (e Event) Format() (string, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return "", fmt.Errorf("debate: marshal %s event: %w", e.Name, err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Name, string(data)), nil
}

// MetadataPayload is the first event of every debate stream (spec §4.9).
type MetadataPayload struct {
	DebateID          string `json:"debate_id"`
	Topic             string `json:"topic"`
	ModelUsed         string `json:"model_used"`
	MemoryEnabled     bool   `json:"memory_enabled"`
	V2FeaturesEnabled bool   `json:"v2_features_enabled"`
	RAGStatus         string `json:"rag_status"`
}

// StartRolePayload announces a role turn is beginning.
type StartRolePayload struct {
	Role string `json:"role"`
}

// TokenPayload carries one streamed chunk of a role turn's content.
type TokenPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// EndRolePayload announces a role turn completed successfully.
type EndRolePayload struct {
	Role string `json:"role"`
}

// TurnErrorPayload announces a role turn failed (non-fatal to the debate).
type TurnErrorPayload struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// RoleReversalCompletePayload reports role-reversal round statistics.
type RoleReversalCompletePayload struct {
	RoundsCompleted int `json:"rounds_completed"`
}

// AnalyticsMetricsPayload summarizes the debate run after all turns.
type AnalyticsMetricsPayload struct {
	TotalTurns       int     `json:"total_turns"`
	SkippedTurns     int     `json:"skipped_turns"`
	TotalLatencyMS   int64   `json:"total_latency_ms"`
	EvidenceCount    int     `json:"evidence_count"`
	RAGStatus        string  `json:"rag_status"`
	RAGLatencySec    float64 `json:"rag_latency_sec"`
}

// FinalVerdictPayload wraps the completed VerdictReport.
type FinalVerdictPayload struct {
	Verdict debate.VerdictReport `json:"verdict"`
}

// ErrorPayload announces a fatal, stream-terminating error (spec §4.9,
// §7: transport translates FAILED to this event).
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// EndPayload is the terminal, always-last event. Always empty (spec §4.9).
type EndPayload struct{}
