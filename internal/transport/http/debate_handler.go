package http

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"veritas/internal/debate"
)

// debateRequest is the shared request body for /rag/debate and /v2/analyze.
type debateRequest struct {
	Topic             string `json:"topic"`
	Model             string `json:"model"`
	SessionID         string `json:"session_id"`
	MemoryEnabled     bool   `json:"memory_enabled"`
	RoleReversal      bool   `json:"role_reversal"`
	ReversalRounds    int    `json:"reversal_rounds"`
	V2FeaturesEnabled bool   `json:"v2_features_enabled"`
	Stream            *bool  `json:"stream"`
}

func (r debateRequest) wantsStream() bool {
	return r.Stream == nil || *r.Stream
}

func (r debateRequest) options(d *Deps) debate.Options {
	return debate.Options{
		MemoryEnabled:     r.MemoryEnabled,
		V2FeaturesEnabled: r.V2FeaturesEnabled,
		RoleReversal:      r.RoleReversal,
		ReversalRounds:    r.ReversalRounds,
		Model:             r.Model,
		DebateTotalBudget: d.Config.DebateTotal(),
		SSEWriteBudget:    time.Duration(d.Config.SSEWriteBudgetSeconds) * time.Second,
	}
}

// RAGDebate handles POST /rag/debate: a structured debate with a final
// verdict, delivered as an SSE stream by default, or as JSON with a
// full trace when the client sets stream=false (spec §6).
func (h *Handlers) RAGDebate(c *fiber.Ctx) error {
	var req debateRequest
	if err := c.BodyParser(&req); err != nil || req.Topic == "" {
		return fiber.NewError(fiber.StatusBadRequest, "topic is required")
	}

	debateID := uuid.NewString()
	req.V2FeaturesEnabled = false

	go h.deps.Orchestrator.Run(context.Background(), debateID, req.Topic, req.options(h.deps))

	if !req.wantsStream() {
		return h.collectDebateJSON(c, debateID)
	}

	return h.streamDebate(c, debateID)
}

// V2Analyze handles POST /v2/analyze: the enhanced dashboard mode
// (multi-agent debate with role reversal always enabled), returned as
// one synchronous JSON response (spec §6).
func (h *Handlers) V2Analyze(c *fiber.Ctx) error {
	var req debateRequest
	if err := c.BodyParser(&req); err != nil || req.Topic == "" {
		return fiber.NewError(fiber.StatusBadRequest, "topic is required")
	}

	debateID := uuid.NewString()
	req.V2FeaturesEnabled = true
	req.RoleReversal = true

	go h.deps.Orchestrator.Run(context.Background(), debateID, req.Topic, req.options(h.deps))

	return h.collectDebateJSON(c, debateID)
}

// streamDebate relays every event for debateID to the client as SSE,
// following haowjy-meridian/internal/handler/sse_handler.go's
// SetBodyStreamWriter + keepalive-ticker shape.
func (h *Handlers) streamDebate(c *fiber.Ctx, debateID string) error {
	clientID := uuid.NewString()

	ch, ok := waitForStream(h.deps.Registry, debateID, clientID)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "debate stream unavailable")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// Captured here, synchronously, rather than re-derived inside the
	// SetBodyStreamWriter closure below: fasthttp's RequestCtx stays
	// valid for the life of the stream, but re-calling c.Context() from
	// inside that closure risks observing a *fiber.Ctx already recycled
	// to fiber's pool once this handler returns.
	reqCtx := c.Context()

	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.deps.Registry.RemoveClient(debateID, clientID)

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-reqCtx.Done():
				// Client disconnected mid-stream: trip the shared
				// cancellation token (spec §4.11) instead of leaving the
				// orchestrator running for nobody.
				h.deps.Registry.Cancel(debateID)
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				rendered, err := ev.Format()
				if err != nil {
					h.deps.Logger.Error("sse: format event failed", "debate_id", debateID, "error", err)
					continue
				}
				if _, err := fmt.Fprint(w, rendered); err != nil {
					h.deps.Registry.Cancel(debateID)
					return
				}
				if err := w.Flush(); err != nil {
					h.deps.Registry.Cancel(debateID)
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					h.deps.Registry.Cancel(debateID)
					return
				}
				if err := w.Flush(); err != nil {
					h.deps.Registry.Cancel(debateID)
					return
				}
			}
		}
	})

	return nil
}

// collectDebateJSON drains a debate's event stream to completion and
// returns the accumulated trace and final verdict as one JSON body,
// the non-streaming response shape spec §6 allows.
func (h *Handlers) collectDebateJSON(c *fiber.Ctx, debateID string) error {
	clientID := uuid.NewString()
	ch, ok := waitForStream(h.deps.Registry, debateID, clientID)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "debate stream unavailable")
	}
	defer h.deps.Registry.RemoveClient(debateID, clientID)

	reqCtx := c.Context()

	var trace []debate.Event
	var verdict *debate.FinalVerdictPayload
loop:
	for {
		select {
		case <-reqCtx.Done():
			h.deps.Registry.Cancel(debateID)
			break loop
		case ev, ok := <-ch:
			if !ok {
				break loop
			}
			trace = append(trace, ev)
			if ev.Name == debate.EventFinalVerdict {
				if payload, ok := ev.Payload.(debate.FinalVerdictPayload); ok {
					verdict = &payload
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"debate_id": debateID,
		"trace":     trace,
		"verdict":   verdict,
	})
}

// waitForStream polls briefly for the orchestrator's Registry.Open call
// to land before a client tries to attach (Run happens in a goroutine
// started moments earlier).
func waitForStream(reg *debate.Registry, debateID, clientID string) (<-chan debate.Event, bool) {
	for i := 0; i < 50; i++ {
		if ch, ok := reg.AddClient(context.Background(), debateID, clientID); ok {
			return ch, true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return nil, false
}
