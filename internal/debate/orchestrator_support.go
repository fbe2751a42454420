package debate

import (
	"context"
	"fmt"

	domainmodel "veritas/internal/domain/models/debate"
	"veritas/internal/domain/repositories"
	"veritas/internal/memory"
)

func (o *Orchestrator) publish(debateID string, ev Event) {
	o.registry.Publish(debateID, ev)
}

// withTx runs fn through the TransactionManager when one is configured,
// so the repository calls inside fn resolve the same transaction via
// GetExecutor; with no TransactionManager (tests, or a deployment with
// no relational store) fn just runs against ctx directly.
func (o *Orchestrator) withTx(ctx context.Context, fn repositories.TxFn) error {
	if o.tm == nil {
		return fn(ctx)
	}
	return o.tm.ExecTx(ctx, fn)
}

// createDebateWithEvidence creates the debate row and appends its seed
// evidence bundle as one transaction, so the two writes commit or fail
// together rather than leaving a debate row with no evidence if the
// process dies between them.
func (o *Orchestrator) createDebateWithEvidence(ctx context.Context, d *domainmodel.Debate, items []domainmodel.EvidenceItem) {
	err := o.withTx(ctx, func(txCtx context.Context) error {
		if o.debates != nil {
			if err := o.debates.CreateDebate(txCtx, d); err != nil {
				return fmt.Errorf("create debate: %w", err)
			}
		}
		if o.evidence != nil && len(items) > 0 {
			if err := o.evidence.AppendEvidence(txCtx, d.ID, items); err != nil {
				return fmt.Errorf("append evidence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		o.logger.Error("debate: create debate + persist evidence failed", "debate_id", d.ID, "error", err)
	}
}

func (o *Orchestrator) createTurn(ctx context.Context, t *domainmodel.Turn) {
	if o.turns == nil {
		return
	}
	if err := o.turns.CreateTurn(ctx, t); err != nil {
		o.logger.Error("debate: create turn failed", "debate_id", t.DebateID, "turn_index", t.TurnIndex, "error", err)
	}
}

func (o *Orchestrator) completeTurn(ctx context.Context, debateID string, turnIndex int, content string) {
	if o.turns == nil {
		return
	}
	err := o.withTx(ctx, func(txCtx context.Context) error {
		return o.turns.CompleteTurn(txCtx, debateID, turnIndex, content)
	})
	if err != nil {
		o.logger.Error("debate: complete turn failed", "debate_id", debateID, "turn_index", turnIndex, "error", err)
	}
}

func (o *Orchestrator) skipTurn(ctx context.Context, debateID string, turnIndex int) {
	if o.turns == nil {
		return
	}
	if err := o.turns.SkipTurn(ctx, debateID, turnIndex); err != nil {
		o.logger.Error("debate: skip turn failed", "debate_id", debateID, "turn_index", turnIndex, "error", err)
	}
}

// gatherEvidence runs the Evidence Gatherer (C10), soft-failing to an
// empty bundle on error (spec §7: "a failed retrieval yields a smaller
// context, never aborts the turn").
func (o *Orchestrator) gatherEvidence(ctx context.Context, topic string) domainmodel.EvidenceBundle {
	if o.gatherer == nil {
		return domainmodel.EvidenceBundle{}
	}
	bundle, err := o.gatherer.Gather(ctx, topic)
	if err != nil {
		o.logger.Warn("debate: evidence gathering failed, continuing with no evidence", "topic", topic, "error", err)
		return domainmodel.EvidenceBundle{}
	}
	return bundle
}

// runVerdictStage runs the dedicated verdict turn: stream the verdict
// role's output, validate against the VerdictReport schema, attempt one
// repair round-trip on failure, and fall back to a synthetic verdict on
// a second failure (spec §4.9).
func (o *Orchestrator) runVerdictStage(ctx context.Context, st *runState) domainmodel.VerdictReport {
	role := domainmodel.RoleVerdict
	turnIndex := st.turnIndex
	st.turnIndex++

	o.publish(st.debateID, Event{Name: EventStartRole, Payload: StartRolePayload{Role: string(role)}})

	systemPrompt := ""
	if o.rolePrompts != nil {
		systemPrompt = o.rolePrompts.SystemPrompt(string(role))
	}

	payload, _ := o.manager.BuildContext(ctx, memory.Request{
		SystemPrompt: systemPrompt,
		CurrentTask:  verdictInstruction(st.topic),
		Query:        st.topic,
		ShortTerm:    st.shortTerm,
		DebateID:     st.debateID,
		SeedBundle:   st.bundle,
		Flags: memory.Flags{
			UseLongTerm:  st.opts.MemoryEnabled,
			UseShortTerm: true,
			EnableWebRAG: false,
			FormatStyle:  "debate",
		},
	})

	content, err := o.streamTurn(ctx, st.debateID, role, payload.Text)
	if err != nil {
		o.publish(st.debateID, Event{Name: EventTurnError, Payload: TurnErrorPayload{Role: string(role), Message: err.Error()}})
		return o.moderatorFallback(st)
	}
	o.publish(st.debateID, Event{Name: EventEndRole, Payload: EndRolePayload{Role: string(role)}})
	o.completeTurn(ctx, st.debateID, turnIndex, content)

	verdict, err := parseVerdict(content)
	if err == nil {
		return verdict
	}

	// One repair attempt: ask the model to re-emit valid JSON.
	o.logger.Warn("debate: verdict schema validation failed, attempting repair", "debate_id", st.debateID, "error", err)
	repairPrompt := payload.Text + "\n\nYour previous reply did not parse as valid JSON matching the schema. Re-emit ONLY the corrected JSON object, nothing else."
	repaired, repairErr := o.streamTurn(ctx, st.debateID, role, repairPrompt)
	if repairErr == nil {
		if v, parseErr := parseVerdict(repaired); parseErr == nil {
			return v
		}
	}

	o.logger.Error("debate: verdict repair failed, falling back to synthetic verdict", "debate_id", st.debateID)
	return o.moderatorFallback(st)
}

// moderatorFallback builds the spec-mandated synthetic verdict from the
// most recent moderator turn's content, or a generic message if none exists.
func (o *Orchestrator) moderatorFallback(st *runState) domainmodel.VerdictReport {
	for i := len(st.shortTerm) - 1; i >= 0; i-- {
		if st.shortTerm[i].Role == string(domainmodel.RoleModerator) {
			return syntheticVerdict(st.shortTerm[i].Content)
		}
	}
	return syntheticVerdict("insufficient content to synthesize a verdict")
}

func verdictInstruction(topic string) string {
	return fmt.Sprintf("Topic: %s\nEmit the verdict JSON object now.", topic)
}

// finish transitions the debate to a terminal status and emits the
// closing event(s) (spec §4.9: a fatal error "may replace remaining
// events and is followed by end"; §8 P3: exactly one end event, last).
func (o *Orchestrator) finish(ctx context.Context, st *runState, status domainmodel.Status, failureMessage string) {
	if status == domainmodel.StatusFailed {
		o.publish(st.debateID, Event{Name: EventError, Payload: ErrorPayload{Message: failureMessage, Code: "orchestration_failed"}})
	}
	if o.debates != nil {
		if err := o.debates.UpdateStatus(ctx, st.debateID, status); err != nil {
			o.logger.Error("debate: update status failed", "debate_id", st.debateID, "error", err)
		}
	}
	o.publish(st.debateID, Event{Name: EventEnd, Payload: EndPayload{}})
	o.registry.Close(st.debateID)
}

// cancelOut implements the cancellation cleanup contract (spec §4.9,
// §5): stop issuing calls, emit error{code:cancelled} then end, mark
// CANCELLED.
func (o *Orchestrator) cancelOut(ctx context.Context, st *runState) {
	o.publish(st.debateID, Event{Name: EventError, Payload: ErrorPayload{Message: "debate cancelled", Code: "cancelled"}})
	if o.debates != nil {
		// Use a detached context: runCtx is already done/timed out.
		bg := context.Background()
		if err := o.debates.UpdateStatus(bg, st.debateID, domainmodel.StatusCancelled); err != nil {
			o.logger.Error("debate: update status failed", "debate_id", st.debateID, "error", err)
		}
	}
	o.publish(st.debateID, Event{Name: EventEnd, Payload: EndPayload{}})
	o.registry.Close(st.debateID)
}
