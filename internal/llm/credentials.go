package llm

import (
	"fmt"
	"sync"
	"time"

	"veritas/internal/config"
)

// Credential is one API key/secret a provider adapter can select.
type Credential struct {
	ID     string
	Secret string
}

// credentialState tracks per-credential cooldown, guarded by the pool's
// mutex (spec §5: "per-provider exclusive critical section; operations
// are O(1)").
type credentialState struct {
	cooldownUntil time.Time
	failures      int
}

// CredentialPool selects the next usable credential via round-robin
// with exponential cooldown, capped at MaxCredentialCooldownSeconds
// (spec §4.1). It generalizes the teacher's one-credential-per-adapter
// shape (providers/anthropic.Provider held a single client) to the
// spec's ordered-credential-list requirement.
type CredentialPool struct {
	mu          sync.Mutex
	credentials []Credential
	state       map[string]*credentialState
	cursor      int
}

// NewCredentialPool builds a pool from raw secrets, assigning each a
// stable index-based ID (cred-0, cred-1, ...).
func NewCredentialPool(secrets []string) *CredentialPool {
	creds := make([]Credential, len(secrets))
	state := make(map[string]*credentialState, len(secrets))
	for i, s := range secrets {
		id := credentialID(i)
		creds[i] = Credential{ID: id, Secret: s}
		state[id] = &credentialState{}
	}
	return &CredentialPool{credentials: creds, state: state}
}

func credentialID(i int) string {
	return fmt.Sprintf("cred-%d", i)
}

// Next returns the next credential not currently in cooldown, advancing
// the round-robin cursor. Returns false if every credential is cooling
// down.
func (p *CredentialPool) Next(now time.Time) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.credentials)
	if n == 0 {
		return Credential{}, false
	}
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		cred := p.credentials[idx]
		st := p.state[cred.ID]
		if now.After(st.cooldownUntil) || now.Equal(st.cooldownUntil) {
			p.cursor = (idx + 1) % n
			return cred, true
		}
	}
	return Credential{}, false
}

// MarkFailure places credentialID on a cooldown deadline, doubling each
// consecutive failure up to the cap (spec §4.1: "exponential, capped at
// 10 minutes").
func (p *CredentialPool) MarkFailure(credentialID string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state[credentialID]
	if !ok {
		return
	}
	st.failures++
	backoff := time.Duration(1<<uint(min(st.failures, 10))) * time.Second
	maxCooldown := time.Duration(config.MaxCredentialCooldownSeconds) * time.Second
	if backoff > maxCooldown {
		backoff = maxCooldown
	}
	st.cooldownUntil = now.Add(backoff)
}

// MarkSuccess resets credentialID's cooldown (spec §4.1: "Successful
// use resets cooldown").
func (p *CredentialPool) MarkSuccess(credentialID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st, ok := p.state[credentialID]; ok {
		st.failures = 0
		st.cooldownUntil = time.Time{}
	}
}

// Healthy reports whether at least one credential is usable right now.
func (p *CredentialPool) Healthy() bool {
	_, ok := p.Next(time.Now())
	return ok
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
