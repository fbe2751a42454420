// Package retriever implements the Hybrid Retriever (C7): a pattern
// classifier routing each query to baseline (semantic) or precision
// (metadata-filtered) search, with fallback-to-baseline on an empty
// precision result. The dual-mode concurrent lookup is grounded on
// TicoDavid-RAGbox.co/internal/service/retriever.go's
// errgroup.WithContext fan-out (there: vector+BM25 search run
// concurrently; here: SearchBothModes runs the baseline and precision
// searches concurrently) — generalized since this retriever's two modes
// are mutually exclusive at the classification level: Search classifies
// first and runs only the routed mode.
package retriever

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"veritas/internal/domain/models/memory"
	"veritas/internal/memory/vectorstore"
)

const defaultTopK = 5

var (
	roleTermPattern  = regexp.MustCompile(`(?i)\b(proponent said|opponent argued|moderator)\b`)
	temporalPattern  = regexp.MustCompile(`(?i)\b(yesterday|earlier|last turn)\b`)
	citationPattern  = regexp.MustCompile(`\[\d+\]`)
	docMarkerPattern = regexp.MustCompile(`(?i)\b(ocr|uploaded|image)\b`)
)

// Counters tracks mode distribution and fallback rate for observability
// (spec §4.7: "Maintains counters of mode distribution and fallback rate").
type Counters struct {
	Baseline  atomic.Int64
	Precision atomic.Int64
	Fallbacks atomic.Int64
}

// Retriever implements the Hybrid Retriever (C7).
type Retriever struct {
	store    vectorstore.Store
	topK     int
	counters Counters
}

// New builds a Retriever over store, defaulting topK to 5 when <= 0.
func New(store vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{store: store, topK: topK}
}

// Counters exposes the retriever's observability counters.
func (r *Retriever) Counters() *Counters { return &r.counters }

// Classify applies the pattern classifier from spec §4.7.
func Classify(query string) memory.QueryClassification {
	switch {
	case roleTermPattern.MatchString(query):
		return memory.QueryClassification{Mode: memory.ModePrecision, Reason: "role_term", Confidence: 0.9}
	case temporalPattern.MatchString(query):
		return memory.QueryClassification{Mode: memory.ModePrecision, Reason: "temporal_qualifier", Confidence: 0.85}
	case citationPattern.MatchString(query):
		return memory.QueryClassification{Mode: memory.ModePrecision, Reason: "citation_reference", Confidence: 0.85}
	case docMarkerPattern.MatchString(query):
		return memory.QueryClassification{Mode: memory.ModePrecision, Reason: "document_type_marker", Confidence: 0.8}
	case hasNamedEntity(query):
		return memory.QueryClassification{Mode: memory.ModePrecision, Reason: "named_entity", Confidence: 0.6}
	default:
		return memory.QueryClassification{Mode: memory.ModeBaseline, Reason: "no_precision_signal", Confidence: 0.7}
	}
}

// hasNamedEntity is a light NER pass (spec §4.7: "a named-entity flag
// from a light NER pass"): flags any capitalized word after the first
// as a cheap proxy, since no NER library appears anywhere in
// the retrieved corpus.
func hasNamedEntity(query string) bool {
	words := strings.Fields(query)
	for i, w := range words {
		if i == 0 {
			continue // skip sentence-initial capitalization
		}
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'A' && r[0] <= 'Z' {
			return true
		}
	}
	return false
}

// Result is one retrieval outcome with its routing classification.
type Result struct {
	Hits           []vectorstore.SearchHit
	Classification memory.QueryClassification
}

// Search classifies query and routes to baseline or precision mode,
// falling back to baseline when precision returns no hits.
func (r *Retriever) Search(ctx context.Context, query string, filter map[string]string) (Result, error) {
	classification := Classify(query)

	if classification.Mode == memory.ModeBaseline {
		r.counters.Baseline.Add(1)
		hits, err := r.store.Search(ctx, query, r.topK, nil)
		if err != nil {
			return Result{}, err
		}
		return Result{Hits: hits, Classification: classification}, nil
	}

	r.counters.Precision.Add(1)
	hits, err := r.store.Search(ctx, query, r.topK*2, filter)
	if err != nil {
		return Result{}, err
	}
	hits = rerankByFilterMatch(hits, filter)
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}
	if len(hits) == 0 {
		r.counters.Fallbacks.Add(1)
		baselineHits, err := r.store.Search(ctx, query, r.topK, nil)
		if err != nil {
			return Result{}, err
		}
		fallback := memory.QueryClassification{Mode: memory.ModeBaseline, Reason: "precision_empty_fallback", Confidence: classification.Confidence}
		return Result{Hits: baselineHits, Classification: fallback}, nil
	}
	return Result{Hits: hits, Classification: classification}, nil
}

// SearchBothModes runs baseline and precision candidate pools
// concurrently via errgroup.WithContext, for callers (e.g. Memory
// Manager diagnostics) that want both signals rather than the
// classifier's single routed choice.
func (r *Retriever) SearchBothModes(ctx context.Context, query string, filter map[string]string) (baseline, precision []vectorstore.SearchHit, err error) {
	grp, gCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		hits, searchErr := r.store.Search(gCtx, query, r.topK, nil)
		baseline = hits
		return searchErr
	})
	grp.Go(func() error {
		hits, searchErr := r.store.Search(gCtx, query, r.topK*2, filter)
		precision = rerankByFilterMatch(hits, filter)
		return searchErr
	})

	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}
	return baseline, precision, nil
}

// rerankByFilterMatch re-ranks precision-mode hits by authority/role
// match (spec §4.7): hits whose metadata satisfies every filter key
// exactly are boosted ahead of partial matches, preserving relative
// order (similarity, already descending) within each bucket.
func rerankByFilterMatch(hits []vectorstore.SearchHit, filter map[string]string) []vectorstore.SearchHit {
	exact := make([]vectorstore.SearchHit, 0, len(hits))
	partial := make([]vectorstore.SearchHit, 0, len(hits))
	for _, h := range hits {
		if h.Metadata.Matches(filter) {
			exact = append(exact, h)
		} else {
			partial = append(partial, h)
		}
	}
	return append(exact, partial...)
}
