// Package session ties the pipeline stages to one user's index and conversation.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/pdfassist/internal/conversation"
	"github.com/hyperjump/pdfassist/internal/extract"
	"github.com/hyperjump/pdfassist/internal/fetch"
	"github.com/hyperjump/pdfassist/internal/indexer"
	"github.com/hyperjump/pdfassist/internal/models"
	"go.uber.org/zap"
)

// Recorder persists processing runs and answered turns. Failures to record never fail the
// operation being recorded.
type Recorder interface {
	RecordRun(ctx context.Context, sessionID string, result *models.ProcessResult) error
	RecordTurn(ctx context.Context, sessionID string, seq int, turn models.Turn) error
}

// Pipeline holds the stateless stages shared by sessions.
type Pipeline struct {
	Acquirer  *fetch.Acquirer
	Extractor *extract.Extractor
	Chunker   *indexer.Chunker
	Indexer   *indexer.Indexer
}

// Session owns one index and one conversation. Process and Ask are serialized, so a rebuild
// and an append never interleave.
type Session struct {
	id        string
	pipeline  Pipeline
	engine    *conversation.Engine
	recorder  Recorder
	logger    *zap.Logger
	createdAt time.Time

	mu sync.Mutex
	// turnSeq numbers recorded turns across the session's lifetime. It is not reset when a
	// reprocess clears the history, so transcript rows never collide.
	turnSeq int
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder records runs and turns.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an Unready session.
func New(id string, p Pipeline, engine *conversation.Engine, opts ...Option) *Session {
	s := &Session{id: id, pipeline: p, engine: engine, createdAt: time.Now()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Process acquires, extracts, chunks and indexes a batch, then installs the new index.
// Per-source failures are reported in the result and never abort the run. A run-level failure
// (models.ErrEmptyBatch, models.ErrEmptyCorpus, *models.IndexingError) is returned together with
// the result and leaves the previous index and history untouched.
func (s *Session) Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &models.ProcessResult{
		FailedURLs:    []models.FailureRecord{},
		FailedUploads: []models.FailureRecord{},
	}
	urls := fetch.CleanURLs(req.RemoteURLs)
	if len(urls) == 0 && len(req.Uploads) == 0 {
		return s.finish(ctx, res, models.ErrEmptyBatch)
	}

	blobs, fetchFailures := s.pipeline.Acquirer.Acquire(ctx, urls, req.Uploads)
	res.FailedURLs = append(res.FailedURLs, fetchFailures...)

	corpus, extractFailures := s.pipeline.Extractor.BuildCorpus(blobs)
	for _, f := range extractFailures {
		if f.Source.Kind == models.SourceRemote {
			res.FailedURLs = append(res.FailedURLs, f)
		} else {
			res.FailedUploads = append(res.FailedUploads, f)
		}
	}
	res.CorpusBytes = len(corpus)
	if strings.TrimSpace(corpus) == "" {
		return s.finish(ctx, res, models.ErrEmptyCorpus)
	}

	chunks := s.pipeline.Chunker.Chunk(corpus)
	ix, err := s.pipeline.Indexer.Build(ctx, chunks)
	if err != nil {
		return s.finish(ctx, res, err)
	}
	s.engine.Install(ix)
	res.Ready = true
	res.Chunks = len(chunks)
	return s.finish(ctx, res, nil)
}

func (s *Session) finish(ctx context.Context, res *models.ProcessResult, err error) (*models.ProcessResult, error) {
	if err != nil {
		res.Reason = err.Error()
	}
	if s.logger != nil {
		fields := []zap.Field{
			zap.String("session", s.id),
			zap.Bool("ready", res.Ready),
			zap.Int("chunks", res.Chunks),
			zap.Int("failed_urls", len(res.FailedURLs)),
			zap.Int("failed_uploads", len(res.FailedUploads)),
		}
		if err != nil {
			s.logger.Error("processing failed", append(fields, zap.Error(err))...)
		} else {
			s.logger.Info("documents processed", fields...)
		}
	}
	if s.recorder != nil {
		if rerr := s.recorder.RecordRun(ctx, s.id, res); rerr != nil && s.logger != nil {
			s.logger.Warn("failed to record run", zap.String("session", s.id), zap.Error(rerr))
		}
	}
	return res, err
}

// Ask answers a question against the current index and records the new turn.
func (s *Session) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.engine.Ask(ctx, question)
	if err != nil {
		if s.logger != nil && !errors.Is(err, models.ErrNotReady) && !errors.Is(err, models.ErrEmptyQuestion) {
			s.logger.Error("question failed", zap.String("session", s.id), zap.Error(err))
		}
		return nil, err
	}
	s.turnSeq++
	if s.recorder != nil {
		turn := resp.History[len(resp.History)-1]
		if rerr := s.recorder.RecordTurn(ctx, s.id, s.turnSeq, turn); rerr != nil && s.logger != nil {
			s.logger.Warn("failed to record turn", zap.String("session", s.id), zap.Error(rerr))
		}
	}
	return resp, nil
}

// Ready reports whether questions can be answered.
func (s *Session) Ready() bool { return s.engine.Ready() }

// History returns the conversation so far, oldest first.
func (s *Session) History() models.History { return s.engine.History() }

// Close releases the session's index.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Close()
}
