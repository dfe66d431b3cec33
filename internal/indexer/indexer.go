package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/keyword"
	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/internal/vector"
	"go.uber.org/zap"
)

// Indexer embeds chunks and builds a fresh searchable Index from them.
type Indexer struct {
	embedder  embedding.Embedder
	indexType string
	hybrid    bool
	logger    *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithHybrid also builds a keyword index next to the vector index.
func WithHybrid(enabled bool) IndexerOption {
	return func(idx *Indexer) { idx.hybrid = enabled }
}

// WithIndexType selects the vector index implementation (see vector.NewVectorIndex).
func WithIndexType(t string) IndexerOption {
	return func(idx *Indexer) { idx.indexType = t }
}

// NewIndexer creates an indexer that embeds with embedder.
func NewIndexer(embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{embedder: embedder, indexType: string(vector.IndexTypeMemory)}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build embeds every chunk and returns a new Index. An empty chunk sequence yields
// models.ErrEmptyCorpus; any embedding failure yields *models.IndexingError and no index.
func (idx *Indexer) Build(ctx context.Context, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyCorpus
	}
	start := time.Now()
	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		ids[i] = ch.ID
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &models.IndexingError{Err: fmt.Errorf("failed to generate embeddings: %w", err)}
	}
	if len(embeddings) != len(chunks) {
		return nil, &models.IndexingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(embeddings))}
	}
	dims := idx.embedder.Dimensions()
	if dims <= 0 {
		dims = len(embeddings[0])
	}
	vi, err := vector.NewVectorIndex(idx.indexType, dims)
	if err != nil {
		return nil, &models.IndexingError{Err: err}
	}
	if err := vi.Add(ctx, ids, embeddings); err != nil {
		_ = vi.Close()
		return nil, &models.IndexingError{Err: fmt.Errorf("failed to index vectors: %w", err)}
	}

	var ki keyword.KeywordIndex
	if idx.hybrid {
		bi, err := keyword.NewBleveIndex()
		if err != nil {
			_ = vi.Close()
			return nil, &models.IndexingError{Err: err}
		}
		if err := bi.Index(ctx, chunks); err != nil {
			_ = vi.Close()
			_ = bi.Close()
			return nil, &models.IndexingError{Err: fmt.Errorf("failed to index keywords: %w", err)}
		}
		ki = bi
	}

	ix := &Index{
		id:       uuid.New().String(),
		chunks:   append([]models.Chunk(nil), chunks...),
		byID:     make(map[string]int, len(chunks)),
		vectors:  vi,
		keywords: ki,
		builtAt:  time.Now(),
	}
	for i, ch := range ix.chunks {
		ix.byID[ch.ID] = i
	}
	if idx.logger != nil {
		idx.logger.Debug("index built",
			zap.String("index_id", ix.id),
			zap.Int("chunks", len(chunks)),
			zap.Int("dimensions", dims),
			zap.Bool("hybrid", ki != nil),
			zap.Duration("took", time.Since(start)))
	}
	return ix, nil
}

// Index is an immutable searchable view of one processing run's chunks.
type Index struct {
	id       string
	chunks   []models.Chunk
	byID     map[string]int
	vectors  vector.VectorIndex
	keywords keyword.KeywordIndex // nil unless built with hybrid retrieval
	builtAt  time.Time
}

// Search returns the k chunks closest to query, highest score first; equal scores keep chunk order.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	hits, err := ix.vectors.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if ch, ok := ix.Chunk(h.ID); ok {
			out = append(out, models.ScoredChunk{Chunk: ch, Score: h.Score})
		}
	}
	SortScored(out)
	return out, nil
}

// KeywordSearch runs a term query when the index was built for hybrid retrieval.
// It returns nil when there is no keyword index.
func (ix *Index) KeywordSearch(ctx context.Context, question string, limit int, opts *keyword.SearchOptions) ([]*keyword.KeywordResult, error) {
	if ix.keywords == nil {
		return nil, nil
	}
	return ix.keywords.Search(ctx, question, limit, opts)
}

// HasKeywords reports whether a keyword index was built.
func (ix *Index) HasKeywords() bool { return ix.keywords != nil }

// Chunk looks up a chunk by ID.
func (ix *Index) Chunk(id string) (models.Chunk, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return models.Chunk{}, false
	}
	return ix.chunks[i], true
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int { return len(ix.chunks) }

// ID identifies the processing run that built the index.
func (ix *Index) ID() string { return ix.id }

// BuiltAt returns when the index was built.
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }

// Close releases the underlying indices.
func (ix *Index) Close() error {
	err := ix.vectors.Close()
	if ix.keywords != nil {
		if kerr := ix.keywords.Close(); kerr != nil && err == nil {
			err = kerr
		}
	}
	return err
}

// SortScored orders results by score descending, breaking ties by chunk order.
func SortScored(results []models.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
}
