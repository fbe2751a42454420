package debate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dllm "veritas/internal/domain/services/llm"

	debconfig "veritas/internal/debate/config"
	"veritas/internal/config"
	domainmodel "veritas/internal/domain/models/debate"
	memmodel "veritas/internal/domain/models/memory"
	"veritas/internal/domain/repositories"
	"veritas/internal/llm"
	"veritas/internal/memory"
)

// Gatherer is the Evidence Gatherer (C10) contract the orchestrator depends on.
type Gatherer interface {
	Gather(ctx context.Context, topic string) (domainmodel.EvidenceBundle, error)
}

// Options configure one debate run.
type Options struct {
	MemoryEnabled      bool
	V2FeaturesEnabled  bool
	RoleReversal       bool
	ReversalRounds     int
	Model              string
	DebateTotalBudget  time.Duration
	SSEWriteBudget     time.Duration
}

// Orchestrator drives the Debate Orchestrator (C9) state machine.
type Orchestrator struct {
	registry   *Registry
	gateway    *llm.Gateway
	gatherer   Gatherer
	manager    *memory.Manager
	rolePrompts *debconfig.RolePrompts

	debates  repositories.DebateRepository
	turns    repositories.TurnRepository
	evidence repositories.EvidenceRepository
	tm       repositories.TransactionManager

	logger *slog.Logger
}

// New builds an Orchestrator. Repositories may be nil for a purely
// in-memory/streaming run (e.g. tests); persistence becomes a no-op. tm
// may also be nil (tests, or a deployment without a relational store
// behind the repositories at all); createDebateWithEvidence's
// CreateDebate and AppendEvidence then run as two independent,
// non-transactional writes.
func New(
	registry *Registry,
	gateway *llm.Gateway,
	gatherer Gatherer,
	manager *memory.Manager,
	rolePrompts *debconfig.RolePrompts,
	debates repositories.DebateRepository,
	turns repositories.TurnRepository,
	evidence repositories.EvidenceRepository,
	tm repositories.TransactionManager,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry, gateway: gateway, gatherer: gatherer, manager: manager,
		rolePrompts: rolePrompts, debates: debates, turns: turns, evidence: evidence, tm: tm, logger: logger,
	}
}

// maxConsecutiveTurnFailures transitions the debate to FAILED (spec §4.9).
const maxConsecutiveTurnFailures = 2

// Run drives debateID from INIT through DONE/FAILED/CANCELLED, publishing
// every event to the registry. It returns once the terminal state is
// reached; the caller (transport layer) owns reading events via the
// Registry, not this method's return value.
func (o *Orchestrator) Run(ctx context.Context, debateID, topic string, opts Options) {
	if opts.DebateTotalBudget <= 0 {
		opts.DebateTotalBudget = 5 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, opts.DebateTotalBudget)
	defer cancel()

	// cancel is the debate's shared cancellation token (spec §4.11): a
	// client disconnect or SSE backpressure trip reaches here via the
	// Registry rather than through ctx's own ancestry, since Run is
	// started detached from any one HTTP request.
	o.registry.Open(debateID, cancel, opts.SSEWriteBudget)
	defer o.registry.Forget(debateID)

	d := &domainmodel.Debate{
		ID: debateID, Topic: topic, Mode: modeFor(opts), CreatedAt: time.Now(), Status: domainmodel.StatusRunning,
	}

	// EVIDENCE_GATHER: happens before any SSE event is emitted, per
	// spec §4.9 ("Evidence gathering (before first role turn)").
	gatherStart := time.Now()
	bundle := o.gatherEvidence(runCtx, topic)
	ragStatus := classifyRAGStatus(time.Since(gatherStart), len(bundle.Items))

	// The debate row and its seed evidence bundle are created together,
	// atomically (ExecTx), so a reader never observes a debate with a
	// partially-persisted evidence set.
	o.createDebateWithEvidence(runCtx, d, bundle.Items)

	o.publish(debateID, Event{Name: EventMetadata, Payload: MetadataPayload{
		DebateID: debateID, Topic: topic, ModelUsed: opts.Model,
		MemoryEnabled: opts.MemoryEnabled, V2FeaturesEnabled: opts.V2FeaturesEnabled,
		RAGStatus: ragStatus,
	}})

	state := runState{
		debateID: debateID, topic: topic, opts: opts, bundle: bundle,
		turnIndex: 0, consecutiveFailures: 0,
	}

	// ROLE_TURN* (first round)
	if !o.runRound(runCtx, &state, defaultRoleOrder) {
		o.finish(runCtx, &state, domainmodel.StatusFailed, "too many consecutive turn failures")
		return
	}
	if runCtx.Err() != nil {
		o.cancelOut(runCtx, &state)
		return
	}

	// (ROLE_REVERSAL*)
	if opts.RoleReversal && state.consecutiveFailures < maxConsecutiveTurnFailures {
		o.publish(debateID, Event{Name: EventRoleReversalStart, Payload: struct{}{}})
		rounds := opts.ReversalRounds
		if rounds <= 0 {
			rounds = 1
		}
		completed := 0
		for i := 0; i < rounds; i++ {
			if runCtx.Err() != nil {
				break
			}
			if !o.runRound(runCtx, &state, reversalRoleOrder) {
				o.finish(runCtx, &state, domainmodel.StatusFailed, "too many consecutive turn failures")
				return
			}
			completed++
		}
		o.publish(debateID, Event{Name: EventRoleReversalDone, Payload: RoleReversalCompletePayload{RoundsCompleted: completed}})
	}

	if runCtx.Err() != nil {
		o.cancelOut(runCtx, &state)
		return
	}

	// VERDICT: runs unconditionally unless cancelled.
	verdict := o.runVerdictStage(runCtx, &state)

	o.publish(debateID, Event{Name: EventAnalyticsMetrics, Payload: AnalyticsMetricsPayload{
		TotalTurns:     state.turnIndex,
		SkippedTurns:   state.skipped,
		TotalLatencyMS: time.Since(gatherStart).Milliseconds(),
		EvidenceCount:  len(state.bundle.Items),
		RAGStatus:      ragStatus,
		RAGLatencySec:  time.Since(gatherStart).Seconds(),
	}})
	o.publish(debateID, Event{Name: EventFinalVerdict, Payload: FinalVerdictPayload{Verdict: verdict}})

	if o.debates != nil {
		if err := o.debates.UpdateVerdict(runCtx, debateID, &verdict); err != nil {
			o.logger.Error("debate: persist verdict failed", "debate_id", debateID, "error", err)
		}
	}

	o.finish(runCtx, &state, domainmodel.StatusCompleted, "")
}

// runState carries mutable state through one debate run.
type runState struct {
	debateID            string
	topic                string
	opts                 Options
	bundle               domainmodel.EvidenceBundle
	shortTerm            []memory.ShortTermTurn
	turnIndex            int
	consecutiveFailures  int
	skipped              int
}

// runRound executes one ordered sequence of role turns, returning false
// if the debate must transition to FAILED (2 consecutive turn failures).
func (o *Orchestrator) runRound(ctx context.Context, st *runState, roles []domainmodel.Role) bool {
	for _, role := range roles {
		if ctx.Err() != nil {
			return true
		}
		ok := o.runTurn(ctx, st, role)
		if ok {
			st.consecutiveFailures = 0
		} else {
			st.consecutiveFailures++
			if st.consecutiveFailures >= maxConsecutiveTurnFailures {
				return false
			}
		}
	}
	return true
}

// runTurn executes a single role turn: build context, stream tokens,
// persist, return true on success.
func (o *Orchestrator) runTurn(ctx context.Context, st *runState, role domainmodel.Role) bool {
	turnIndex := st.turnIndex
	st.turnIndex++

	o.publish(st.debateID, Event{Name: EventStartRole, Payload: StartRolePayload{Role: string(role)}})

	turn := &domainmodel.Turn{
		DebateID: st.debateID, TurnIndex: turnIndex, Role: role,
		Status: domainmodel.TurnStatusStreaming, StartedAt: time.Now(),
	}
	o.createTurn(ctx, turn)

	systemPrompt := ""
	if o.rolePrompts != nil {
		systemPrompt = o.rolePrompts.SystemPrompt(string(role))
	}

	payload, err := o.manager.BuildContext(ctx, memory.Request{
		SystemPrompt: systemPrompt,
		CurrentTask:  turnInstruction(role, st.topic),
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
	if err == nil {
		st.bundle = payload.Bundle
	}

	content, streamErr := o.streamTurn(ctx, st.debateID, role, payload.Text)

	if streamErr != nil {
		o.publish(st.debateID, Event{Name: EventTurnError, Payload: TurnErrorPayload{Role: string(role), Message: streamErr.Error()}})
		o.skipTurn(ctx, st.debateID, turnIndex)
		st.skipped++
		return false
	}

	o.completeTurn(ctx, st.debateID, turnIndex, content)
	o.publish(st.debateID, Event{Name: EventEndRole, Payload: EndRolePayload{Role: string(role)}})

	st.shortTerm = append(st.shortTerm, memory.ShortTermTurn{Role: string(role), Content: content})

	if o.manager != nil {
		recordType := memmodel.TypeDebateTurn
		if isArgumentRole(role) {
			recordType = memmodel.TypeRoleStatement
		}
		_ = o.manager.WriteBack(ctx, recordType, content, string(role), st.debateID)
	}

	return true
}

// streamTurn runs one Gateway.Stream call, forwarding each chunk as a
// token event and accumulating the full content.
func (o *Orchestrator) streamTurn(ctx context.Context, debateID string, role domainmodel.Role, contextText string) (string, error) {
	req := dllm.GenerateRequest{
		Messages: []dllm.Message{{Role: "user", Content: contextText}},
		Params:   dllm.Params{MaxTokens: 1024},
	}

	ch, err := o.gateway.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb []byte
	for item := range ch {
		if item.Err != nil {
			return string(sb), item.Err
		}
		if item.Chunk.DeltaText != "" {
			sb = append(sb, item.Chunk.DeltaText...)
			o.publish(debateID, Event{Name: EventToken, Payload: TokenPayload{Role: string(role), Text: item.Chunk.DeltaText}})
		}
	}
	return string(sb), nil
}

func isArgumentRole(role domainmodel.Role) bool {
	switch role {
	case domainmodel.RoleProponent, domainmodel.RoleOpponent, domainmodel.RoleReversedProponent, domainmodel.RoleReversedOpponent:
		return true
	default:
		return false
	}
}

func turnInstruction(role domainmodel.Role, topic string) string {
	return fmt.Sprintf("Topic: %s\nRespond in your assigned role (%s).", topic, role)
}

func modeFor(opts Options) domainmodel.Mode {
	if opts.V2FeaturesEnabled {
		return domainmodel.ModeV2Enhanced
	}
	if opts.RoleReversal {
		return domainmodel.ModeAnalytical
	}
	return domainmodel.ModeDebate
}

func classifyRAGStatus(elapsed time.Duration, evidenceCount int) string {
	switch {
	case evidenceCount == 0:
		return "INTERNAL_KNOWLEDGE"
	case elapsed.Seconds() < config.RAGCacheHitLatencySeconds:
		return "CACHE_HIT"
	default:
		return "LIVE_FETCH"
	}
}
