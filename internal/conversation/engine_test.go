package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = "X is a widget used for testing.\n" +
	"Y is a gadget used in production.\n" +
	"Z is unrelated to both.\n"

type stubGenerator struct {
	prompts []llm.Prompt
	answer  string
	err     error
	wait    bool
}

func (g *stubGenerator) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	if g.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	if g.answer != "" {
		return g.answer, nil
	}
	return "answer to " + p.Question, nil
}

func newIndex(t *testing.T, emb embedding.Embedder) *indexer.Index {
	t.Helper()
	chunks := indexer.NewChunker("\n", 40, 0).Chunk(corpus)
	ix, err := indexer.NewIndexer(emb).Build(context.Background(), chunks)
	require.NoError(t, err)
	return ix
}

func newEngine(t *testing.T, gen llm.Generator, opts ...Option) (*Engine, embedding.Embedder) {
	t.Helper()
	emb := embedding.NewMockEmbedder(64)
	e := NewEngine(search.NewRetriever(emb), gen, opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e, emb
}

func TestAsk_unreadyNeverMutatesHistory(t *testing.T) {
	e, _ := newEngine(t, &stubGenerator{})
	assert.Equal(t, Unready, e.State())
	for i := 0; i < 3; i++ {
		_, err := e.Ask(context.Background(), "What is X?")
		assert.ErrorIs(t, err, models.ErrNotReady)
	}
	assert.Empty(t, e.History())
	assert.False(t, e.Ready())
}

func TestAsk_twiceKeepsOrder(t *testing.T) {
	gen := &stubGenerator{}
	e, emb := newEngine(t, gen, WithTopK(2))
	e.Install(newIndex(t, emb))
	require.True(t, e.Ready())

	first, err := e.Ask(context.Background(), "What is X?")
	require.NoError(t, err)
	assert.Equal(t, "answer to What is X?", first.Answer)
	assert.Len(t, first.History, 1)
	assert.Len(t, first.Sources, 2)

	second, err := e.Ask(context.Background(), "What is X?")
	require.NoError(t, err)
	require.Len(t, second.History, 2)
	assert.Equal(t, "What is X?", second.History[0].Question)
	assert.Equal(t, "What is X?", second.History[1].Question)

	// The second prompt carries the first turn and the retrieved passages.
	require.Len(t, gen.prompts, 2)
	assert.Len(t, gen.prompts[1].History, 1)
	assert.Contains(t, gen.prompts[1].Context[0], "X is a widget")
	assert.Equal(t, SystemPrompt, gen.prompts[1].System)

	// Returned history is a copy.
	second.History[0].Answer = "tampered"
	assert.NotEqual(t, "tampered", e.History()[0].Answer)
}

func TestAsk_blankQuestion(t *testing.T) {
	e, emb := newEngine(t, &stubGenerator{})
	e.Install(newIndex(t, emb))
	_, err := e.Ask(context.Background(), "  \n ")
	assert.ErrorIs(t, err, models.ErrEmptyQuestion)
	assert.Empty(t, e.History())
}

func TestAsk_modelFailureLeavesHistory(t *testing.T) {
	gen := &stubGenerator{}
	e, emb := newEngine(t, gen)
	e.Install(newIndex(t, emb))
	_, err := e.Ask(context.Background(), "What is Y?")
	require.NoError(t, err)

	boom := errors.New("service unavailable")
	gen.err = boom
	_, err = e.Ask(context.Background(), "What is Z?")
	var mie *models.ModelInvocationError
	require.ErrorAs(t, err, &mie)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, e.History(), 1)
	assert.True(t, e.Ready())
}

func TestAsk_generationTimeout(t *testing.T) {
	gen := &stubGenerator{wait: true}
	e, emb := newEngine(t, gen, WithTimeout(20*time.Millisecond))
	e.Install(newIndex(t, emb))
	_, err := e.Ask(context.Background(), "What is X?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var mie *models.ModelInvocationError
	assert.ErrorAs(t, err, &mie)
	assert.Empty(t, e.History())
}

func TestInstall_historyPolicy(t *testing.T) {
	e, emb := newEngine(t, &stubGenerator{})
	e.Install(newIndex(t, emb))
	_, err := e.Ask(context.Background(), "What is X?")
	require.NoError(t, err)
	e.Install(newIndex(t, emb))
	assert.Empty(t, e.History(), "history is cleared by default")

	kept, emb2 := newEngine(t, &stubGenerator{}, WithKeepHistory(true))
	kept.Install(newIndex(t, emb2))
	_, err = kept.Ask(context.Background(), "What is X?")
	require.NoError(t, err)
	kept.Install(newIndex(t, emb2))
	assert.Len(t, kept.History(), 1)
}

func TestBuildPrompt(t *testing.T) {
	sources := []models.ScoredChunk{{Chunk: models.Chunk{Text: "alpha"}}, {Chunk: models.Chunk{Text: "beta"}}}
	history := models.History{{Question: "q1", Answer: "a1"}}
	p := BuildPrompt(sources, history, "q2")
	assert.Equal(t, []string{"alpha", "beta"}, p.Context)
	assert.Equal(t, "q2", p.Question)
	history[0].Answer = "changed"
	assert.Equal(t, "a1", p.History[0].Answer)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unready", Unready.String())
}
