package vectorstore

import (
	"context"
	"fmt"
	"math"
)

// Embedder batches and L2-normalizes embedding calls, matching
// TicoDavid-RAGbox.co/internal/service/embedder.go's EmbedderService
// shape but generalized to a default 384-dim embedding (spec §4.6:
// "default dim 384") instead of the teacher pack's fixed 768.
type Embedder struct {
	client       EmbeddingClient
	dim          int
	maxBatchSize int
}

// NewEmbedder builds an Embedder expecting dim-dimensional vectors from
// client, batching calls at maxBatchSize texts per call.
func NewEmbedder(client EmbeddingClient, dim, maxBatchSize int) *Embedder {
	if dim <= 0 {
		dim = 384
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 250
	}
	return &Embedder{client: client, dim: dim, maxBatchSize: maxBatchSize}
}

// Embed returns one L2-normalized, dimension-validated vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("vectorstore: no texts provided")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.maxBatchSize {
		end := i + e.maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.client.EmbedTexts(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("vectorstore: embed batch %d-%d: %w", i, end, err)
		}
		for j, v := range vectors {
			if len(v) != e.dim {
				return nil, &ErrDimensionMismatch{Got: len(v), Want: e.dim}
			}
			vectors[j] = l2Normalize(v)
		}
		all = append(all, vectors...)
	}

	if len(all) != len(texts) {
		return nil, fmt.Errorf("vectorstore: got %d vectors for %d texts", len(all), len(texts))
	}
	return all, nil
}

func l2Normalize(vec []float32) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
