package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"veritas/internal/domain/models/debate"
	"veritas/internal/domain/repositories"
)

// EvidenceRepository implements repositories.EvidenceRepository.
// citation_idx is stable once assigned (invariant I1), so AppendEvidence
// never updates an existing row, only inserts new ones.
type EvidenceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewEvidenceRepository builds an EvidenceRepository.
func NewEvidenceRepository(cfg *RepositoryConfig) repositories.EvidenceRepository {
	return &EvidenceRepository{pool: cfg.Pool, tables: cfg.Tables}
}

// AppendEvidence persists newly gathered EvidenceItems for a debate.
func (r *EvidenceRepository) AppendEvidence(ctx context.Context, debateID string, items []debate.EvidenceItem) error {
	if len(items) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (debate_id, citation_idx, url, domain, title, snippet, authority, source_type, method, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (debate_id, citation_idx) DO NOTHING
	`, r.tables.EvidenceItems)

	executor := GetExecutor(ctx, r.pool)
	for _, item := range items {
		_, err := executor.Exec(ctx, query,
			debateID, item.CitationIdx, item.URL, item.Domain, item.Title,
			item.Snippet, item.Authority, item.SourceType, item.Method, item.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("append evidence item %d: %w", item.CitationIdx, err)
		}
	}
	return nil
}

// ListEvidence returns a debate's evidence bundle ordered by citation index.
func (r *EvidenceRepository) ListEvidence(ctx context.Context, debateID string) ([]debate.EvidenceItem, error) {
	query := fmt.Sprintf(`
		SELECT citation_idx, url, domain, title, snippet, authority, source_type, method, fetched_at
		FROM %s
		WHERE debate_id = $1
		ORDER BY citation_idx ASC
	`, r.tables.EvidenceItems)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, debateID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	items := []debate.EvidenceItem{}
	for rows.Next() {
		var item debate.EvidenceItem
		if err := rows.Scan(
			&item.CitationIdx, &item.URL, &item.Domain, &item.Title, &item.Snippet,
			&item.Authority, &item.SourceType, &item.Method, &item.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan evidence item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}

	return items, nil
}
