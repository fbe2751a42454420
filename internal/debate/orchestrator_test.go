package debate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainmodel "veritas/internal/domain/models/debate"
	dllm "veritas/internal/domain/services/llm"
	"veritas/internal/llm"
	"veritas/internal/memory"
)

// scriptedProvider replays a fixed queue of chunk texts, one per Stream
// call, optionally delayed, or fails every call when streamErr is set.
type scriptedProvider struct {
	mu          sync.Mutex
	responses   []string
	streamDelay time.Duration
	streamErr   error
}

func (p *scriptedProvider) ID() string    { return "scripted" }
func (p *scriptedProvider) Healthy() bool { return true }

func (p *scriptedProvider) Call(ctx context.Context, req dllm.GenerateRequest) (dllm.CompletionResult, error) {
	return dllm.CompletionResult{}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, req dllm.GenerateRequest) (<-chan dllm.StreamItem, error) {
	p.mu.Lock()
	streamErr := p.streamErr
	var text string
	if len(p.responses) > 0 {
		text = p.responses[0]
		p.responses = p.responses[1:]
	}
	delay := p.streamDelay
	p.mu.Unlock()

	// A couple of milliseconds of simulated network latency per call,
	// same as a real provider adapter, so a test observing the debate
	// mid-run has a realistic window to attach before it closes.
	if delay <= 0 {
		delay = 2 * time.Millisecond
	}

	out := make(chan dllm.StreamItem, 1)
	go func() {
		defer close(out)
		time.Sleep(delay)
		if streamErr != nil {
			out <- dllm.StreamItem{Err: streamErr}
			return
		}
		out <- dllm.StreamItem{Chunk: dllm.Chunk{DeltaText: text}}
	}()
	return out, nil
}

type fakeGatherer struct{}

func (fakeGatherer) Gather(ctx context.Context, topic string) (domainmodel.EvidenceBundle, error) {
	return domainmodel.EvidenceBundle{}, nil
}

// attachAndCollect waits for debateID's stream to open, then drains
// every event published until the stream closes (matching
// internal/transport/http/debate_handler.go's waitForStream pattern).
func attachAndCollect(t *testing.T, reg *Registry, debateID string) []Event {
	t.Helper()
	var ch <-chan Event
	var ok bool
	for i := 0; i < 200; i++ {
		ch, ok = reg.AddClient(context.Background(), debateID, "test-client")
		if ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !ok {
		t.Fatal("debate stream never opened")
	}

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func newTestOrchestrator(registry *Registry, provider dllm.Provider) *Orchestrator {
	gateway := llm.NewGateway([]dllm.Provider{provider}, 2*time.Second)
	manager := memory.New(nil, nil, nil)
	return New(registry, gateway, fakeGatherer{}, manager, nil, nil, nil, nil, nil, nil)
}

func TestOrchestrator_Run_HappyPathEndsWithOneVerdictAndOneEnd(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"proponent argues the claim is well sourced.",
		"opponent disputes the sourcing.",
		"moderator summarizes the exchange.",
		`{"verdict":"VERIFIED","confidence_pct":82,"summary":"well supported"}`,
	}}
	registry := NewRegistry()
	o := newTestOrchestrator(registry, provider)

	debateID := "debate-happy"
	go o.Run(context.Background(), debateID, "topic", Options{})

	events := attachAndCollect(t, registry, debateID)

	var verdicts, ends, turnErrors int
	for _, ev := range events {
		switch ev.Name {
		case EventFinalVerdict:
			verdicts++
		case EventEnd:
			ends++
		case EventTurnError:
			turnErrors++
		}
	}
	if verdicts != 1 {
		t.Errorf("final_verdict events = %d, want 1", verdicts)
	}
	if ends != 1 {
		t.Errorf("end events = %d, want 1", ends)
	}
	if turnErrors != 0 {
		t.Errorf("turn_error events = %d, want 0 on the happy path", turnErrors)
	}
	if events[len(events)-1].Name != EventEnd {
		t.Errorf("last event = %q, want %q (end must be terminal)", events[len(events)-1].Name, EventEnd)
	}
}

func TestOrchestrator_Run_TwoConsecutiveFailuresEndsInFailedStatus(t *testing.T) {
	provider := &scriptedProvider{
		streamErr: llm.NewProviderError("scripted", llm.KindServerError, errors.New("boom")),
	}
	registry := NewRegistry()
	o := newTestOrchestrator(registry, provider)

	debateID := "debate-failed"
	go o.Run(context.Background(), debateID, "topic", Options{})

	events := attachAndCollect(t, registry, debateID)

	var turnErrors, orchestrationFailures, verdicts int
	for _, ev := range events {
		switch ev.Name {
		case EventTurnError:
			turnErrors++
		case EventError:
			if p, ok := ev.Payload.(ErrorPayload); ok && p.Code == "orchestration_failed" {
				orchestrationFailures++
			}
		case EventFinalVerdict:
			verdicts++
		}
	}
	if turnErrors != 2 {
		t.Errorf("turn_error events = %d, want 2 (proponent, opponent)", turnErrors)
	}
	if orchestrationFailures != 1 {
		t.Errorf("orchestration_failed error events = %d, want 1", orchestrationFailures)
	}
	if verdicts != 0 {
		t.Errorf("final_verdict events = %d, want 0: the run should fail before the verdict stage", verdicts)
	}
	if events[len(events)-1].Name != EventEnd {
		t.Errorf("last event = %q, want %q", events[len(events)-1].Name, EventEnd)
	}
}

func TestOrchestrator_Run_DebateBudgetExpiryCancelsTheRun(t *testing.T) {
	provider := &scriptedProvider{
		responses:   []string{"slow proponent reply"},
		streamDelay: 200 * time.Millisecond,
	}
	registry := NewRegistry()
	o := newTestOrchestrator(registry, provider)

	debateID := "debate-cancelled"
	go o.Run(context.Background(), debateID, "topic", Options{DebateTotalBudget: 15 * time.Millisecond})

	events := attachAndCollect(t, registry, debateID)

	var cancelled, verdicts int
	for _, ev := range events {
		switch ev.Name {
		case EventError:
			if p, ok := ev.Payload.(ErrorPayload); ok && p.Code == "cancelled" {
				cancelled++
			}
		case EventFinalVerdict:
			verdicts++
		}
	}
	if cancelled != 1 {
		t.Errorf("cancelled error events = %d, want 1", cancelled)
	}
	if verdicts != 0 {
		t.Errorf("final_verdict events = %d, want 0: a cancelled run must not reach the verdict stage", verdicts)
	}
	if events[len(events)-1].Name != EventEnd {
		t.Errorf("last event = %q, want %q", events[len(events)-1].Name, EventEnd)
	}
}
