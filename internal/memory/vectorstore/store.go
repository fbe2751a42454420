// Package vectorstore implements the Vector Store (C6): add/search/
// delete over embedded text with metadata filters, backed by pgvector.
// Grounded on TicoDavid-RAGbox.co/internal/repository/chunk.go (pgx
// batch inserts, `<=>` cosine-distance operator, row scanning) and
// internal/service/embedder.go (pluggable EmbeddingClient, batching,
// L2 normalization) — the teacher itself never touches embeddings, so
// this whole package's grounding comes from the pack's RAG repo.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"veritas/internal/domain/models/memory"
)

// EmbeddingClient abstracts the embedding backend. Pluggable per spec
// §4.6 ("computes embedding via a pluggable embedding function").
type EmbeddingClient interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchHit is one ranked result from Search.
type SearchHit struct {
	ID       string
	Score    float64
	Text     string
	Metadata memory.Metadata
}

// Store is the Vector Store contract (spec §4.6).
type Store interface {
	Add(ctx context.Context, text string, metadata memory.Metadata, dedup bool) (string, error)
	Search(ctx context.Context, queryText string, k int, filter map[string]string) ([]SearchHit, error)
	Delete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, filter map[string]string) error
}

// NormalizedHash computes the deduplication content hash over
// normalized text (spec §4.6: "compute a content hash over normalized
// text"). Normalization lowercases and collapses whitespace, matching
// TicoDavid-RAGbox.co's normalized-hash idiom in
// cache.EmbeddingQueryHash (lowercase + trim before hashing).
func NormalizedHash(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func filterMatches(filter map[string]string, meta memory.Metadata) bool {
	return meta.Matches(filter)
}

// ErrDimensionMismatch is returned when an embedding client produces a
// vector of unexpected dimensionality.
type ErrDimensionMismatch struct {
	Got, Want int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: embedding has %d dimensions, want %d", e.Got, e.Want)
}
