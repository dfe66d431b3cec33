package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/pdfassist/internal/config"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestMockEmbedder_similarTextsScoreHigher(t *testing.T) {
	e := NewMockEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "What is the refund policy?")
	near, _ := e.Embed(ctx, "Our refund policy allows returns within 30 days.")
	far, _ := e.Embed(ctx, "Photosynthesis converts light into chemical energy.")
	if dot(q, near) <= dot(q, far) {
		t.Errorf("expected related text to score higher: near=%f far=%f", dot(q, near), dot(q, far))
	}
	again, _ := e.Embed(ctx, "What is the refund policy?")
	if math.Abs(dot(q, again)-1) > 1e-5 {
		t.Errorf("identical texts should have similarity 1, got %f", dot(q, again))
	}
}

func TestMockEmbedder_emptyTextIsUnitVector(t *testing.T) {
	e := NewMockEmbedder(8)
	v, err := e.Embed(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if math.Abs(dot(v, v)-1) > 1e-6 {
		t.Errorf("norm^2 = %f", dot(v, v))
	}
}

func TestMockEmbedder_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(8).EmbedBatch(ctx, []string{"a"}); err == nil {
		t.Error("expected context error")
	}
}

func embeddingsServer(t *testing.T, dims int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		*calls++
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, len(req.Input))
		// Reply in reverse order to check the client reorders by index.
		for i := range req.Input {
			idx := len(req.Input) - 1 - i
			vec := make([]float32, dims)
			vec[idx%dims] = 2
			data[i] = map[string]any{"object": "embedding", "index": idx, "embedding": vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "test"})
	}))
}

func TestOpenAIEmbedder_batchesAndNormalizes(t *testing.T) {
	calls := 0
	srv := embeddingsServer(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", "text-embedding-3-small", 4,
		WithBaseURL(srv.URL+"/v1"), WithBatchSize(2))
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	for i, v := range vecs {
		if v[i%2] != 1 {
			t.Errorf("vector %d = %v, want unit vector on axis %d", i, v, i%2)
		}
	}
}

func TestOpenAIEmbedder_dimensionMismatch(t *testing.T) {
	calls := 0
	srv := embeddingsServer(t, 3, &calls)
	defer srv.Close()
	e := NewOpenAIEmbedder("k", "m", 4, WithBaseURL(srv.URL+"/v1"))
	if _, err := e.Embed(context.Background(), "a"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestOpenAIEmbedder_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()
	e := NewOpenAIEmbedder("k", "m", 4, WithBaseURL(srv.URL+"/v1"))
	if _, err := e.EmbedBatch(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error")
	}
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Dimensions: 32, CacheSize: 4})
	if err != nil {
		t.Fatalf("New mock: %v", err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("got %T, want *CachedEmbedder", e)
	}
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}

	t.Setenv("PDFASSIST_TEST_KEY", "")
	if _, err := New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "PDFASSIST_TEST_KEY"}); err == nil {
		t.Error("expected error for missing api key")
	}
	t.Setenv("PDFASSIST_TEST_KEY", "sk-test")
	e, err = New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "PDFASSIST_TEST_KEY", Dimensions: 8})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if _, ok := e.(*OpenAIEmbedder); !ok {
		t.Errorf("got %T, want *OpenAIEmbedder", e)
	}
	if _, err := New(config.EmbeddingConfig{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
