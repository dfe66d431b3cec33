package session

import (
	"github.com/hyperjump/pdfassist/internal/config"
	"github.com/hyperjump/pdfassist/internal/conversation"
	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/extract"
	"github.com/hyperjump/pdfassist/internal/fetch"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/search"
	"go.uber.org/zap"
)

// NewPipeline builds the shared pipeline stages from cfg.
func NewPipeline(cfg *config.Config, emb embedding.Embedder, logger *zap.Logger) Pipeline {
	return Pipeline{
		Acquirer: fetch.NewAcquirer(
			fetch.WithTimeout(cfg.Fetch.Timeout()),
			fetch.WithMaxBytes(cfg.Fetch.MaxBytes),
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithConcurrency(cfg.Fetch.Concurrency),
			fetch.WithLogger(logger),
		),
		Extractor: extract.NewExtractor(extract.WithLogger(logger)),
		Chunker:   indexer.NewChunker(cfg.Chunking.Separator, cfg.Chunking.ChunkSize, cfg.Chunking.OverlapOrDefault()),
		Indexer: indexer.NewIndexer(emb,
			indexer.WithHybrid(cfg.Retrieval.Hybrid),
			indexer.WithIndexType(cfg.Retrieval.VectorIndex),
			indexer.WithLogger(logger),
		),
	}
}

// NewFactory returns a Factory whose sessions share the pipeline, embedder and generator but
// each own their index and conversation. rec may be nil.
func NewFactory(cfg *config.Config, emb embedding.Embedder, gen llm.Generator, rec Recorder, logger *zap.Logger) Factory {
	pipeline := NewPipeline(cfg, emb, logger)
	retriever := search.NewRetriever(emb,
		search.WithWeights(cfg.Retrieval.KeywordWeight, cfg.Retrieval.SemanticWeight),
		search.WithFuzzy(cfg.Retrieval.Fuzzy),
		search.WithLogger(logger),
	)
	return func(id string) (*Session, error) {
		engine := conversation.NewEngine(retriever, gen,
			conversation.WithTopK(cfg.Retrieval.TopK),
			conversation.WithTimeout(cfg.Generation.Timeout()),
			conversation.WithKeepHistory(cfg.Session.KeepHistoryOnReprocess),
			conversation.WithLogger(logger),
		)
		opts := []Option{WithLogger(logger)}
		if rec != nil {
			opts = append(opts, WithRecorder(rec))
		}
		return New(id, pipeline, engine, opts...), nil
	}
}
