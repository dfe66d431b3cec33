package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/search"
	"github.com/hyperjump/pdfassist/internal/vector"
)

func BenchmarkFuse(b *testing.B) {
	kw := make(map[string]float64)
	sem := make(map[string]float64)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("chunk-%d", i)
		kw[id] = float64(i) / 100
		sem[id] = float64(100-i) / 100
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = search.Fuse(kw, sem, 0.3, 0.7)
	}
}

func BenchmarkChunk(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&sb, "Line %d of the extracted manual text.\n", i)
	}
	corpus := sb.String()
	c := indexer.NewChunker(indexer.DefaultSeparator, indexer.DefaultChunkSize, indexer.DefaultOverlap)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Chunk(corpus)
	}
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx, _ := vector.NewMemoryIndex(384)
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(384)
	texts := make([]string, 1000)
	ids := make([]string, 1000)
	for i := range texts {
		texts[i] = fmt.Sprintf("passage %d about topic %d", i, i%37)
		ids[i] = fmt.Sprintf("chunk-%d", i)
	}
	vecs, _ := emb.EmbedBatch(ctx, texts)
	_ = idx.Add(ctx, ids, vecs)
	q, _ := emb.Embed(ctx, "passage about topic 5")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, q, 4)
	}
}
