// Package server provides the HTTP API for pdfassist sessions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/pdfassist/internal/config"
	"github.com/hyperjump/pdfassist/internal/session"
	"github.com/hyperjump/pdfassist/internal/storage"
	"go.uber.org/zap"
)

const maxUploadBytes = 64 << 20

// maxAskBytes bounds the JSON body of an ask request.
const maxAskBytes = 1 << 20

// Server is the HTTP server for the pdfassist API.
type Server struct {
	sessions *session.Manager
	storage  storage.Storage // nil when transcripts are disabled
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. store may be nil.
func NewServer(
	sessions *session.Manager,
	store storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sessions: sessions,
		storage:  store,
		config:   cfg,
		logger:   logger,
	}
}

// Router returns the API routes. There is no request timeout: a processing run or a question
// always runs to completion, bounded by the per-fetch and per-model timeouts.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/process", s.handleProcess)
			r.Post("/ask", s.handleAsk)
			r.Get("/history", s.handleHistory)
			r.Get("/transcript", s.handleTranscript)
		})
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
