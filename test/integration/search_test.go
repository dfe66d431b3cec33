// Package integration wires the pipeline stages together without the session layer.
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/pdfassist/internal/conversation"
	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/extract"
	"github.com/hyperjump/pdfassist/internal/fetch"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/internal/search"
	"github.com/hyperjump/pdfassist/test/fixtures"
)

func TestIntegration_Pipeline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/remote.pdf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixtures.MinimalPDF(
			"Machine learning algorithms learn from data. ",
			"Semantic search uses embeddings to find similar content. ",
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(64)
	defer embedder.Close()

	blobs, failures := fetch.NewAcquirer().Acquire(ctx,
		[]string{srv.URL + "/remote.pdf", srv.URL + "/absent.pdf"},
		[]models.Upload{
			{Name: "local.pdf", Data: fixtures.MinimalPDF("Vector databases store embeddings. ")},
			{Name: "broken.pdf", Data: fixtures.CorruptPDF()},
		})
	if len(blobs) != 3 {
		t.Fatalf("expected 3 acquired blobs, got %d", len(blobs))
	}
	if len(failures) != 1 || failures[0].Reason != "404" {
		t.Fatalf("expected one 404 failure, got %+v", failures)
	}

	corpus, extractFailures := extract.NewExtractor().BuildCorpus(blobs)
	if len(extractFailures) != 1 || extractFailures[0].Source.ID != "broken.pdf" {
		t.Fatalf("expected broken.pdf to fail extraction, got %+v", extractFailures)
	}
	if !strings.Contains(corpus, "Machine learning") || !strings.Contains(corpus, "Vector databases") {
		t.Fatalf("corpus missing document text: %q", corpus)
	}
	if strings.Index(corpus, "Machine learning") > strings.Index(corpus, "Vector databases") {
		t.Error("remote documents should precede uploads in the corpus")
	}

	chunker := indexer.NewChunker(". ", 60, 10)
	chunks := chunker.Chunk(corpus)
	if got := indexer.Reconstruct(chunks); got != corpus {
		t.Fatalf("chunks do not reconstruct the corpus:\n%q\n%q", got, corpus)
	}

	ix, err := indexer.NewIndexer(embedder, indexer.WithHybrid(true)).Build(ctx, chunks)
	if err != nil {
		t.Fatal(err)
	}

	retriever := search.NewRetriever(embedder)
	hits, err := retriever.Retrieve(ctx, ix, "machine learning algorithms", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || !strings.Contains(hits[0].Chunk.Text, "Machine learning") {
		t.Fatalf("expected the machine learning chunk first, got %+v", hits)
	}

	engine := conversation.NewEngine(retriever, llm.EchoGenerator{}, conversation.WithTopK(2))
	defer engine.Close()
	engine.Install(ix)
	resp, err := engine.Ask(ctx, "Where are embeddings stored?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer == "" || len(resp.History) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}
