package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"veritas/internal/domain/models/memory"
)

// PostgresStore is the pgvector-backed Vector Store (C6), grounded on
// TicoDavid-RAGbox.co/internal/repository/chunk.go's BulkInsert/
// SimilaritySearch shape, generalized from per-document chunks to
// standalone memory Records with arbitrary metadata filters.
//
// Dedup (invariant I3) requires a unique constraint on
// (content_hash, source) at the schema level, the same convention
// internal/repository/postgres/turn.go's (debate_id, turn_index)
// constraint follows — Add's ON CONFLICT clause is a no-op without it.
type PostgresStore struct {
	pool      *pgxpool.Pool
	embedder  *Embedder
	tableName string
}

// NewPostgresStore builds a PostgresStore writing to tableName (the
// caller applies the environment's table prefix, following the
// teacher's TableNames pattern).
func NewPostgresStore(pool *pgxpool.Pool, embedder *Embedder, tableName string) *PostgresStore {
	return &PostgresStore{pool: pool, embedder: embedder, tableName: tableName}
}

var _ Store = (*PostgresStore)(nil)

// Add embeds text and inserts it, deduplicating against an existing
// record with the same normalized-text hash and metadata.Source when
// dedup is true (spec §4.6, invariant I3). Dedup relies on a unique
// constraint over (content_hash, source) plus INSERT ... ON CONFLICT
// rather than a separate SELECT-then-INSERT, so two concurrent writers
// racing the same URL can't both pass a check and double-insert (spec
// §5: "tolerate concurrent search while add is in flight"); a conflict
// shows up as pgx.ErrNoRows from RETURNING, not as the pgcode-23505
// error internal/repository/postgres/errors.go checks for.
func (s *PostgresStore) Add(ctx context.Context, text string, meta memory.Metadata, dedup bool) (string, error) {
	hash := NormalizedHash(text)

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	embedding := pgvector.NewVector(vectors[0])

	if dedup {
		query := fmt.Sprintf(`
			INSERT INTO %s (id, text, content_hash, embedding, type, source, role, debate_id, topic, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (content_hash, source) DO NOTHING
			RETURNING id`, s.tableName)

		var returnedID string
		err := s.pool.QueryRow(ctx, query,
			id, text, hash, embedding,
			string(meta.Type), meta.Source, meta.Role, meta.DebateID, meta.Topic, meta.Timestamp,
		).Scan(&returnedID)
		if err == nil {
			return returnedID, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("vectorstore: insert: %w", err)
		}
		// ON CONFLICT DO NOTHING suppressed the insert: another writer
		// already holds this (content_hash, source) pair.
		return s.findByHash(ctx, hash, meta.Source)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, text, content_hash, embedding, type, source, role, debate_id, topic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		id, text, hash, embedding,
		string(meta.Type), meta.Source, meta.Role, meta.DebateID, meta.Topic, meta.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("vectorstore: insert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) findByHash(ctx context.Context, hash, source string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE content_hash = $1 AND source = $2 LIMIT 1`, s.tableName)
	var id string
	err := s.pool.QueryRow(ctx, query, hash, source).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// Search returns the top-k records by cosine similarity (pgvector's
// `<=>` cosine-distance operator, `1 - distance` as score — same idiom
// as chunk.go's SimilaritySearch), optionally narrowed by filter applied
// as a Go-side equality conjunction over the scanned rows' metadata
// (memory.Metadata.Matches; no contains-style matching).
func (s *PostgresStore) Search(ctx context.Context, queryText string, k int, filter map[string]string) ([]SearchHit, error) {
	vectors, err := s.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	queryVec := pgvector.NewVector(vectors[0])

	// Pull more than k when a filter is present since the SQL layer
	// doesn't push the filter down; over-fetch is bounded at 4x.
	fetchLimit := k
	if len(filter) > 0 {
		fetchLimit = k * 4
	}

	query := fmt.Sprintf(`
		SELECT id, text, type, source, role, debate_id, topic, created_at,
			1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, s.tableName)

	rows, err := s.pool.Query(ctx, query, queryVec, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0, fetchLimit)
	for rows.Next() {
		var (
			id, text, typ, source, role, debateID, topic string
			createdAt                                     time.Time
			similarity                                    float64
		)
		if err := rows.Scan(&id, &text, &typ, &source, &role, &debateID, &topic, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("vectorstore: scan: %w", err)
		}
		meta := memory.Metadata{
			Type:      memory.RecordType(typ),
			Source:    source,
			Role:      role,
			DebateID:  debateID,
			Topic:     topic,
			Timestamp: createdAt,
		}
		if len(filter) > 0 && !filterMatches(filter, meta) {
			continue
		}
		hits = append(hits, SearchHit{ID: id, Score: similarity, Text: text, Metadata: meta})
		if len(hits) >= k {
			break
		}
	}
	return hits, nil
}

// Delete removes a single record by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	_, err := s.pool.Exec(ctx, query, id)
	return err
}

// DeleteWhere removes every record matching filter (equality conjunction
// over the supported columns type, source, role, debate_id and topic;
// other keys are ignored, and a filter with no supported key is an
// error).
func (s *PostgresStore) DeleteWhere(ctx context.Context, filter map[string]string) error {
	if len(filter) == 0 {
		return fmt.Errorf("vectorstore: DeleteWhere requires a non-empty filter")
	}

	clauses := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	i := 1
	for _, col := range []string{"type", "source", "role", "debate_id", "topic"} {
		v, ok := filter[col]
		if !ok {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, v)
		i++
	}
	if len(clauses) == 0 {
		return fmt.Errorf("vectorstore: DeleteWhere filter has no supported keys")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, s.tableName, strings.Join(clauses, " AND "))
	_, err := s.pool.Exec(ctx, query, args...)
	return err
}
