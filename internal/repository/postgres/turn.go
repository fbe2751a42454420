package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"veritas/internal/domain"
	"veritas/internal/domain/models/debate"
	"veritas/internal/domain/repositories"
)

// TurnRepository implements repositories.TurnRepository. TurnIndex is
// strictly monotonic per debate (invariant I2), enforced by a unique
// constraint on (debate_id, turn_index) at the schema level.
type TurnRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTurnRepository builds a TurnRepository.
func NewTurnRepository(cfg *RepositoryConfig) repositories.TurnRepository {
	return &TurnRepository{pool: cfg.Pool, tables: cfg.Tables}
}

// CreateTurn inserts a turn row at the start of streaming.
func (r *TurnRepository) CreateTurn(ctx context.Context, t *debate.Turn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (debate_id, turn_index, role, status, started_at, content)
		VALUES ($1, $2, $3, $4, $5, '')
	`, r.tables.Turns)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		t.DebateID, t.TurnIndex, t.Role, t.Status, t.StartedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("turn %d already exists for debate %s: %w", t.TurnIndex, t.DebateID, domain.ErrConflict)
		}
		return fmt.Errorf("create turn: %w", err)
	}
	return nil
}

// AppendContent appends delta to a streaming turn's content, used for
// mid-stream persistence independent of SSE delivery.
func (r *TurnRepository) AppendContent(ctx context.Context, debateID string, turnIndex int, delta string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET content = content || $1
		WHERE debate_id = $2 AND turn_index = $3
	`, r.tables.Turns)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, delta, debateID, turnIndex)
	if err != nil {
		return fmt.Errorf("append turn content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %d for debate %s: %w", turnIndex, debateID, domain.ErrNotFound)
	}
	return nil
}

// CompleteTurn finalizes a turn's content and marks it complete.
func (r *TurnRepository) CompleteTurn(ctx context.Context, debateID string, turnIndex int, finalContent string) error {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s SET content = $1, status = $2, completed_at = $3
		WHERE debate_id = $4 AND turn_index = $5
	`, r.tables.Turns)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		finalContent, debate.TurnStatusComplete, now, debateID, turnIndex,
	)
	if err != nil {
		return fmt.Errorf("complete turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %d for debate %s: %w", turnIndex, debateID, domain.ErrNotFound)
	}
	return nil
}

// FailTurn marks a turn errored, recording the failure message.
func (r *TurnRepository) FailTurn(ctx context.Context, debateID string, turnIndex int, message string) error {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, error = $2, completed_at = $3
		WHERE debate_id = $4 AND turn_index = $5
	`, r.tables.Turns)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		debate.TurnStatusError, message, now, debateID, turnIndex,
	)
	if err != nil {
		return fmt.Errorf("fail turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %d for debate %s: %w", turnIndex, debateID, domain.ErrNotFound)
	}
	return nil
}

// SkipTurn marks a turn skipped after a consecutive-failure abort (spec §4.9).
func (r *TurnRepository) SkipTurn(ctx context.Context, debateID string, turnIndex int) error {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, completed_at = $2
		WHERE debate_id = $3 AND turn_index = $4
	`, r.tables.Turns)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		debate.TurnStatusSkipped, now, debateID, turnIndex,
	)
	if err != nil {
		return fmt.Errorf("skip turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("turn %d for debate %s: %w", turnIndex, debateID, domain.ErrNotFound)
	}
	return nil
}

// ListTurns returns every turn for a debate, ordered by turn_index ascending.
func (r *TurnRepository) ListTurns(ctx context.Context, debateID string) ([]debate.Turn, error) {
	query := fmt.Sprintf(`
		SELECT debate_id, turn_index, role, status, started_at, completed_at, content, provider_used, error
		FROM %s
		WHERE debate_id = $1
		ORDER BY turn_index ASC
	`, r.tables.Turns)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, debateID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	turns := []debate.Turn{}
	for rows.Next() {
		var t debate.Turn
		if err := rows.Scan(
			&t.DebateID, &t.TurnIndex, &t.Role, &t.Status, &t.StartedAt, &t.CompletedAt,
			&t.Content, &t.ProviderUsed, &t.Error,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}
