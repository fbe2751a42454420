package vectorstore

import (
	"context"
	"testing"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(64)
	ctx := context.Background()

	first, err := h.EmbedTexts(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	second, err := h.EmbedTexts(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 vector each, got %d and %d", len(first), len(second))
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatalf("dimension %d differs across calls: %v != %v", i, first[0][i], second[0][i])
		}
	}
}

func TestHashEmbedder_Dimension(t *testing.T) {
	h := NewHashEmbedder(128)
	vecs, err := h.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("want 3 vectors, got %d", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 128 {
			t.Errorf("vector %d has %d dims, want 128", i, len(v))
		}
	}
}

func TestHashEmbedder_DistinctTextsDiffer(t *testing.T) {
	h := NewHashEmbedder(32)
	vecs, err := h.EmbedTexts(context.Background(), []string{"climate change is real", "cats are nocturnal"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	same := true
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected distinct texts to produce distinct vectors")
	}
}

func TestHashEmbedder_DefaultsDimWhenNonPositive(t *testing.T) {
	h := NewHashEmbedder(0)
	vecs, err := h.EmbedTexts(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if len(vecs[0]) != 384 {
		t.Fatalf("want default dim 384, got %d", len(vecs[0]))
	}
}

func TestHashEmbedder_CompatibleWithEmbedder(t *testing.T) {
	// NewEmbedder L2-normalizes and dimension-checks whatever its
	// EmbeddingClient returns; HashEmbedder must satisfy that contract.
	e := NewEmbedder(NewHashEmbedder(16), 16, 10)
	vecs, err := e.Embed(context.Background(), []string{"hello world", "goodbye world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("want 2 vectors, got %d", len(vecs))
	}
}
