package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/pdfassist/pkg/utils"
	"github.com/sashabaranov/go-openai"
)

const defaultBatchSize = 64

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
	baseURL    string
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.baseURL = url }
}

// WithBatchSize sets how many texts are sent per request.
func WithBatchSize(n int) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewOpenAIEmbedder creates an embedder for model. dimensions is the expected vector length.
func NewOpenAIEmbedder(apiKey, model string, dimensions int, opts ...OpenAIOption) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:      model,
		dimensions: dimensions,
		batchSize:  defaultBatchSize,
	}
	if e.model == "" {
		e.model = string(openai.SmallEmbedding3)
	}
	if e.dimensions <= 0 {
		e.dimensions = 1536
	}
	for _, o := range opts {
		o(e)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if e.baseURL != "" {
		clientConfig.BaseURL = e.baseURL
	}
	e.client = openai.NewClientWithConfig(clientConfig)
	return e
}

// Embed returns the embedding of a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in request-sized batches. The result has one vector per text,
// in input order, each of length Dimensions() and unit L2 norm.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= end-start {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			if len(d.Embedding) != e.dimensions {
				return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(d.Embedding), e.dimensions)
			}
			utils.NormalizeL2(d.Embedding)
			results[start+d.Index] = d.Embedding
		}
	}
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
