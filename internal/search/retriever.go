package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/keyword"
	"github.com/hyperjump/pdfassist/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultKeywordWeight  = 0.3
	DefaultSemanticWeight = 0.7
	minCandidates         = 10
)

// Retriever embeds a question and selects the top-k chunks of an Index.
type Retriever struct {
	embedder       embedding.Embedder
	keywordWeight  float64
	semanticWeight float64
	fuzzy          bool
	logger         *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithWeights sets the keyword/semantic weights used when the index has a keyword index.
func WithWeights(keywordWeight, semanticWeight float64) Option {
	return func(r *Retriever) {
		if keywordWeight >= 0 && semanticWeight >= 0 && keywordWeight+semanticWeight > 0 {
			r.keywordWeight = keywordWeight
			r.semanticWeight = semanticWeight
		}
	}
}

// WithFuzzy enables typo-tolerant keyword matching.
func WithFuzzy(enabled bool) Option {
	return func(r *Retriever) { r.fuzzy = enabled }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever that embeds questions with embedder.
func NewRetriever(embedder embedding.Embedder, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:       embedder,
		keywordWeight:  DefaultKeywordWeight,
		semanticWeight: DefaultSemanticWeight,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Retrieve returns up to k chunks of ix ordered by relevance to question; equal scores keep
// chunk order. Without a keyword index the ranking is purely semantic.
func (r *Retriever) Retrieve(ctx context.Context, ix *indexer.Index, question string, k int) ([]models.ScoredChunk, error) {
	if ix == nil {
		return nil, models.ErrNotReady
	}
	if k <= 0 {
		return nil, nil
	}
	qv, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if !ix.HasKeywords() {
		return ix.Search(ctx, qv, k)
	}

	candidates := k * 3
	if candidates < minCandidates {
		candidates = minCandidates
	}
	semantic, err := ix.Search(ctx, qv, candidates)
	if err != nil {
		return nil, err
	}
	kw, err := ix.KeywordSearch(ctx, question, candidates, &keyword.SearchOptions{FuzzyEnabled: r.fuzzy})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	fused := Fuse(NormalizeKeywordScores(kw), NormalizeSemanticScores(semantic), r.keywordWeight, r.semanticWeight)
	out := make([]models.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		if ch, ok := ix.Chunk(f.ID); ok {
			out = append(out, models.ScoredChunk{Chunk: ch, Score: f.Score})
		}
	}
	indexer.SortScored(out)
	if len(out) > k {
		out = out[:k]
	}
	if r.logger != nil {
		r.logger.Debug("hybrid retrieval",
			zap.Int("keyword_hits", len(kw)),
			zap.Int("semantic_hits", len(semantic)),
			zap.Int("returned", len(out)))
	}
	return out, nil
}
