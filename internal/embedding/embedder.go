// Package embedding turns chunk and question text into vectors.
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/pdfassist/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedding: environment variable %s is not set", cfg.APIKeyEnv)
		}
		e = NewOpenAIEmbedder(key, cfg.Model, cfg.Dimensions,
			WithBaseURL(cfg.BaseURL), WithBatchSize(cfg.BatchSize))
	case "mock":
		e = NewMockEmbedder(cfg.Dimensions)
	case "onnx":
		o, oerr := NewONNXEmbedder(cfg.ModelPath, cfg.VocabPath, cfg.Dimensions, cfg.MaxTokens)
		if oerr != nil {
			return nil, oerr
		}
		e = o
	default:
		err = fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
