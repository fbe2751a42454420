package llm

import "sync/atomic"

// providerCounters holds atomic per-provider call tallies so the
// Gateway can record outcomes from concurrent goroutines without a
// lock (spec §5: metrics updates must not serialize the hot path).
type providerCounters struct {
	calls     atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	fallbacks atomic.Int64
}

// ProviderSnapshot is a point-in-time read of one provider's counters.
type ProviderSnapshot struct {
	ProviderID string
	Calls      int64
	Successes  int64
	Failures   int64
	Fallbacks  int64
}

// Metrics aggregates per-provider counters for the Gateway (C2).
type Metrics struct {
	counters map[string]*providerCounters
}

// NewMetrics builds a Metrics tracker for the given provider IDs.
func NewMetrics(providerIDs []string) *Metrics {
	m := &Metrics{counters: make(map[string]*providerCounters, len(providerIDs))}
	for _, id := range providerIDs {
		m.counters[id] = &providerCounters{}
	}
	return m
}

func (m *Metrics) get(providerID string) *providerCounters {
	c, ok := m.counters[providerID]
	if !ok {
		// Unexpected provider id (e.g. added after construction); track
		// it anyway rather than dropping the signal.
		c = &providerCounters{}
		m.counters[providerID] = c
	}
	return c
}

// RecordCall increments the attempt counter for providerID.
func (m *Metrics) RecordCall(providerID string) {
	m.get(providerID).calls.Add(1)
}

// RecordSuccess increments the success counter for providerID.
func (m *Metrics) RecordSuccess(providerID string) {
	m.get(providerID).successes.Add(1)
}

// RecordFailure increments the failure counter for providerID.
func (m *Metrics) RecordFailure(providerID string) {
	m.get(providerID).failures.Add(1)
}

// RecordFallback increments the fallback-triggered counter for providerID,
// i.e. this provider failed in a way that caused the Gateway to advance.
func (m *Metrics) RecordFallback(providerID string) {
	m.get(providerID).fallbacks.Add(1)
}

// Snapshot returns a stable read of every tracked provider's counters.
func (m *Metrics) Snapshot() []ProviderSnapshot {
	out := make([]ProviderSnapshot, 0, len(m.counters))
	for id, c := range m.counters {
		out = append(out, ProviderSnapshot{
			ProviderID: id,
			Calls:      c.calls.Load(),
			Successes:  c.successes.Load(),
			Failures:   c.failures.Load(),
			Fallbacks:  c.fallbacks.Load(),
		})
	}
	return out
}
