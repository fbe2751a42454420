package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"veritas/internal/domain"
	"veritas/internal/domain/models/debate"
	"veritas/internal/domain/repositories"
)

// DebateRepository implements repositories.DebateRepository.
type DebateRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDebateRepository builds a DebateRepository.
func NewDebateRepository(cfg *RepositoryConfig) repositories.DebateRepository {
	return &DebateRepository{pool: cfg.Pool, tables: cfg.Tables}
}

// CreateDebate inserts the Debate aggregate's initial row.
func (r *DebateRepository) CreateDebate(ctx context.Context, d *debate.Debate) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, session_id, mode, status, created_at, turn_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Debates)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		d.ID, d.Topic, d.SessionID, d.Mode, d.Status, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create debate: %w", err)
	}
	return nil
}

// GetDebate retrieves one Debate by id, including its verdict if set.
func (r *DebateRepository) GetDebate(ctx context.Context, id string) (*debate.Debate, error) {
	query := fmt.Sprintf(`
		SELECT id, topic, session_id, mode, status, created_at, turn_count, final_verdict
		FROM %s
		WHERE id = $1
	`, r.tables.Debates)

	var d debate.Debate
	var verdictRaw []byte
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Topic, &d.SessionID, &d.Mode, &d.Status, &d.CreatedAt, &d.TurnCount, &verdictRaw,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("debate %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}

	if len(verdictRaw) > 0 {
		var v debate.VerdictReport
		if err := json.Unmarshal(verdictRaw, &v); err != nil {
			return nil, fmt.Errorf("decode final_verdict: %w", err)
		}
		d.FinalVerdict = &v
	}

	return &d, nil
}

// UpdateStatus transitions a debate's lifecycle status.
func (r *DebateRepository) UpdateStatus(ctx context.Context, id string, status debate.Status) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1 WHERE id = $2`, r.tables.Debates)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update debate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("debate %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateVerdict records the synthesized verdict and marks the debate completed.
func (r *DebateRepository) UpdateVerdict(ctx context.Context, id string, verdict *debate.VerdictReport) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("encode final_verdict: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET final_verdict = $1, status = $2 WHERE id = $3
	`, r.tables.Debates)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, raw, debate.StatusCompleted, id)
	if err != nil {
		return fmt.Errorf("update verdict: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("debate %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// IncrementTurnCount bumps and returns a debate's turn_count, used by the
// orchestrator to assign each turn's position without a separate read.
func (r *DebateRepository) IncrementTurnCount(ctx context.Context, id string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET turn_count = turn_count + 1 WHERE id = $1
		RETURNING turn_count
	`, r.tables.Debates)

	var count int
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		if isPgNoRowsError(err) {
			return 0, fmt.Errorf("debate %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("increment turn count: %w", err)
	}
	return count, nil
}
