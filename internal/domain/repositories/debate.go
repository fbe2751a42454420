package repositories

import (
	"context"

	"veritas/internal/domain/models/debate"
)

// DebateRepository persists Debate aggregates (§3).
type DebateRepository interface {
	CreateDebate(ctx context.Context, d *debate.Debate) error
	GetDebate(ctx context.Context, id string) (*debate.Debate, error)
	UpdateStatus(ctx context.Context, id string, status debate.Status) error
	UpdateVerdict(ctx context.Context, id string, verdict *debate.VerdictReport) error
	IncrementTurnCount(ctx context.Context, id string) (int, error)
}

// TurnRepository persists the append-only Turn sequence for a debate (§3, I2).
type TurnRepository interface {
	CreateTurn(ctx context.Context, t *debate.Turn) error
	AppendContent(ctx context.Context, debateID string, turnIndex int, delta string) error
	CompleteTurn(ctx context.Context, debateID string, turnIndex int, finalContent string) error
	FailTurn(ctx context.Context, debateID string, turnIndex int, message string) error
	SkipTurn(ctx context.Context, debateID string, turnIndex int) error
	ListTurns(ctx context.Context, debateID string) ([]debate.Turn, error)
}

// EvidenceRepository persists EvidenceItem rows tied to a debate (§3, I1).
type EvidenceRepository interface {
	AppendEvidence(ctx context.Context, debateID string, items []debate.EvidenceItem) error
	ListEvidence(ctx context.Context, debateID string) ([]debate.EvidenceItem, error)
}
