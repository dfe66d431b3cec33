// Package conversation holds the question/answer state machine of a session.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultTopK    = 4
	DefaultTimeout = 60 * time.Second
)

// State is Unready until an index has been installed.
type State int

const (
	Unready State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "unready"
}

// Retriever selects the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, ix *indexer.Index, question string, k int) ([]models.ScoredChunk, error)
}

// Engine answers questions against the installed index and accumulates the history.
// History only grows by one turn per successful Ask.
type Engine struct {
	retriever   Retriever
	generator   llm.Generator
	topK        int
	timeout     time.Duration
	keepHistory bool
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	index   *indexer.Index
	history models.History
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKeepHistory keeps the conversation when a new index replaces the current one.
func WithKeepHistory(keep bool) Option {
	return func(e *Engine) { e.keepHistory = keep }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an Unready engine.
func NewEngine(retriever Retriever, generator llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		generator: generator,
		topK:      DefaultTopK,
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Install makes ix the index questions are answered from and moves the engine to Ready.
// The previous index is closed. Unless the engine keeps history, the conversation restarts.
func (e *Engine) Install(ix *indexer.Index) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil && e.index != ix {
		_ = e.index.Close()
	}
	e.index = ix
	if !e.keepHistory {
		e.history = nil
	}
}

// Ask answers question from the installed index. It fails with models.ErrNotReady before any
// index is installed, models.ErrEmptyQuestion for a blank question and *models.ModelInvocationError
// when retrieval or generation fails. History is changed only on success.
func (e *Engine) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return nil, models.ErrNotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ErrEmptyQuestion
	}

	sources, err := e.retriever.Retrieve(ctx, e.index, question, e.topK)
	if err != nil {
		return nil, &models.ModelInvocationError{Err: err}
	}
	prompt := BuildPrompt(sources, e.history, question)

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	start := time.Now()
	answer, err := e.generator.Generate(genCtx, prompt)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("generation failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		}
		return nil, &models.ModelInvocationError{Err: err}
	}
	if e.logger != nil {
		e.logger.Debug("question answered",
			zap.Int("sources", len(sources)),
			zap.Int("turn", len(e.history)+1),
			zap.Duration("took", time.Since(start)))
	}

	e.history = append(e.history, models.Turn{Question: question, Answer: answer, AskedAt: e.now()})
	return &models.AskResponse{
		Answer:  answer,
		History: e.history.Clone(),
		Sources: sources,
	}, nil
}

// State reports whether an index is installed.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return Unready
	}
	return Ready
}

// Ready is shorthand for State() == Ready.
func (e *Engine) Ready() bool { return e.State() == Ready }

// History returns a copy of the turns so far, oldest first.
func (e *Engine) History() models.History {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Clone()
}

// Close releases the installed index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return nil
	}
	err := e.index.Close()
	e.index = nil
	return err
}
