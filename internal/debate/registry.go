package debate

import (
	"context"
	"sync"
	"time"
)

// defaultWriteBudget is the fallback sse_write_budget (spec §5) when a
// debate is opened without one configured.
const defaultWriteBudget = 5 * time.Second

// stream is one debate's live event channel plus the catchup buffer of
// every event emitted so far, so a reconnecting client can replay from
// the start (generalized from
// haowjy-meridian/internal/handler/sse_handler.go's per-turn
// AddClient/RemoveClient/HandleReconnection, here keyed by debate_id
// instead of turn_id, with a single producer and N fan-out consumers).
type stream struct {
	mu          sync.Mutex
	history     []Event
	clients     map[string]chan Event
	closed      bool
	cancel      context.CancelFunc
	writeBudget time.Duration
}

// Registry tracks one stream per in-flight debate.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*stream
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*stream)}
}

// Open creates the stream for debateID. Must be called once before the
// orchestrator starts emitting events for it. cancel is the debate's
// shared cancellation token (spec §4.11): invoking Cancel on this
// debate, or tripping the writeBudget backpressure contract in Publish,
// calls it. writeBudget <= 0 falls back to defaultWriteBudget.
func (r *Registry) Open(debateID string, cancel context.CancelFunc, writeBudget time.Duration) {
	if writeBudget <= 0 {
		writeBudget = defaultWriteBudget
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[debateID] = &stream{
		clients:     make(map[string]chan Event),
		cancel:      cancel,
		writeBudget: writeBudget,
	}
}

// Cancel trips debateID's shared cancellation token, if one was
// registered via Open. Safe to call multiple times or after Close.
func (r *Registry) Cancel(debateID string) {
	r.mu.Lock()
	s := r.streams[debateID]
	r.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Publish broadcasts ev to every currently attached client of debateID
// and appends it to the replay history. Safe to call after Close (no-op).
//
// A client whose buffer is full is given up to the stream's writeBudget
// to drain before Publish trips the debate's cancellation token (spec
// §5: "if the writer cannot accept frames for sse_write_budget, the
// orchestrator cancels") rather than silently dropping the event.
func (r *Registry) Publish(debateID string, ev Event) {
	r.mu.Lock()
	s := r.streams[debateID]
	r.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.history = append(s.history, ev)
	clients := make(map[string]chan Event, len(s.clients))
	for id, ch := range s.clients {
		clients[id] = ch
	}
	budget := s.writeBudget
	cancel := s.cancel
	s.mu.Unlock()

	for _, ch := range clients {
		select {
		case ch <- ev:
			continue
		default:
		}

		timer := time.NewTimer(budget)
		select {
		case ch <- ev:
			timer.Stop()
		case <-timer.C:
			if cancel != nil {
				cancel()
			}
			return
		}
	}
}

// Close marks debateID's stream terminal and closes every attached
// client channel. The stream entry itself is retained briefly so a
// reconnecting client can still observe the closed state via AddClient.
func (r *Registry) Close(debateID string) {
	r.mu.Lock()
	s := r.streams[debateID]
	r.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
}

// Forget drops debateID's stream entirely (call once no client can
// plausibly still be reconnecting).
func (r *Registry) Forget(debateID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, debateID)
}

// AddClient registers clientID against debateID and returns a channel
// delivering every event from here forward, replaying history first
// (reconnection catchup). Returns ok=false if the debate has no stream.
func (r *Registry) AddClient(ctx context.Context, debateID, clientID string) (<-chan Event, bool) {
	r.mu.Lock()
	s := r.streams[debateID]
	r.mu.Unlock()
	if s == nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, len(s.history)+32)
	for _, ev := range s.history {
		ch <- ev
	}
	if s.closed {
		close(ch)
		return ch, true
	}
	s.clients[clientID] = ch
	return ch, true
}

// RemoveClient detaches clientID from debateID's stream.
func (r *Registry) RemoveClient(debateID, clientID string) {
	r.mu.Lock()
	s := r.streams[debateID]
	r.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[clientID]; ok {
		delete(s.clients, clientID)
		close(ch)
	}
}
