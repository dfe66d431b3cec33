package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/pdfassist/internal/fetch"
	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/internal/session"
	"go.uber.org/zap"
)

type failureJSON struct {
	URL    string `json:"url,omitempty"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

type processResponse struct {
	FailedURLs    []failureJSON `json:"failed_urls"`
	FailedUploads []failureJSON `json:"failed_uploads"`
	Ready         bool          `json:"ready"`
	Reason        string        `json:"reason,omitempty"`
	Chunks        int           `json:"chunks"`
	Error         string        `json:"error,omitempty"`
}

type turnJSON struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type sourceJSON struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type askResponse struct {
	Answer   string           `json:"answer"`
	History  []turnJSON       `json:"history"`
	Messages []models.Message `json:"messages"`
	Sources  []sourceJSON     `json:"sources"`
}

func toTurns(h models.History) []turnJSON {
	out := make([]turnJSON, len(h))
	for i, t := range h {
		out[i] = turnJSON{Question: t.Question, Answer: t.Answer}
	}
	return out
}

func toFailures(records []models.FailureRecord) []failureJSON {
	out := make([]failureJSON, len(records))
	for i, f := range records {
		if f.Source.Kind == models.SourceRemote {
			out[i] = failureJSON{URL: f.Source.ID, Reason: f.Reason}
		} else {
			out[i] = failureJSON{Name: f.Source.ID, Reason: f.Reason}
		}
	}
	return out
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": sess.ID()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	req, err := decodeProcessRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("process request",
		zap.String("session", sess.ID()),
		zap.Int("urls", len(req.RemoteURLs)),
		zap.Int("uploads", len(req.Uploads)))

	res, err := sess.Process(context.WithoutCancel(r.Context()), req)
	out := processResponse{
		FailedURLs:    toFailures(res.FailedURLs),
		FailedUploads: toFailures(res.FailedUploads),
		Ready:         res.Ready,
		Reason:        res.Reason,
		Chunks:        res.Chunks,
	}
	if err != nil {
		out.Error = err.Error()
		s.respondJSON(w, processStatus(err), out)
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}

func processStatus(err error) int {
	var ie *models.IndexingError
	switch {
	case errors.Is(err, models.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmptyCorpus):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ie):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeProcessRequest accepts JSON (uploads base64-encoded) or a multipart form with a
// newline-separated "urls" field and "files" parts.
func decodeProcessRequest(r *http.Request) (models.ProcessRequest, error) {
	var req models.ProcessRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid request body")
		}
		return req, nil
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return req, errors.New("invalid multipart form")
	}
	req.RemoteURLs = fetch.ParseURLList(r.FormValue("urls"))
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return req, errors.New("cannot read uploaded file " + fh.Filename)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		_ = f.Close()
		if err != nil {
			return req, errors.New("cannot read uploaded file " + fh.Filename)
		}
		req.Uploads = append(req.Uploads, models.Upload{Name: fh.Filename, Data: data})
	}
	return req, nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req models.AskRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := sess.Ask(context.WithoutCancel(r.Context()), req.Question)
	if err != nil {
		s.respondError(w, askStatus(err), err.Error())
		return
	}
	sources := make([]sourceJSON, len(resp.Sources))
	for i, src := range resp.Sources {
		sources[i] = sourceJSON{Index: src.Chunk.Index, Text: src.Chunk.Text, Score: src.Score}
	}
	s.respondJSON(w, http.StatusOK, askResponse{
		Answer:   resp.Answer,
		History:  toTurns(resp.History),
		Messages: resp.History.Messages(),
		Sources:  sources,
	})
}

func askStatus(err error) int {
	var mie *models.ModelInvocationError
	switch {
	case errors.Is(err, models.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.As(err, &mie):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	h := sess.History()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ready":    sess.Ready(),
		"history":  toTurns(h),
		"messages": h.Messages(),
	})
}

// handleTranscript serves what was recorded in the transcript database, which outlives
// the in-memory session state.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "transcripts not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	turns, err := s.storage.ListTurns(r.Context(), id)
	if err != nil {
		s.logger.Error("list turns failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	runs, err := s.storage.CountRuns(r.Context(), id)
	if err != nil {
		s.logger.Error("count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": id,
		"runs":    runs,
		"turns":   toTurns(turns),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	if s.storage != nil {
		if n, err := s.storage.SizeBytes(); err == nil {
			resp["storage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
