// Package fetch resolves document sources (remote URLs and local uploads) into raw bytes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/pdfassist/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 50 << 20
)

// Acquirer downloads remote documents and passes local uploads through.
// A failing URL is recorded and never aborts the rest of the batch.
type Acquirer struct {
	client      *http.Client
	timeout     time.Duration
	maxBytes    int64
	userAgent   string
	concurrency int
	logger      *zap.Logger
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Acquirer) {
		if c != nil {
			a.client = c
		}
	}
}

// WithTimeout bounds each individual fetch.
func WithTimeout(d time.Duration) Option {
	return func(a *Acquirer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxBytes caps the size of a downloaded document.
func WithMaxBytes(n int64) Option {
	return func(a *Acquirer) {
		if n > 0 {
			a.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every fetch.
func WithUserAgent(ua string) Option {
	return func(a *Acquirer) { a.userAgent = ua }
}

// WithConcurrency sets how many URLs are fetched at once.
func WithConcurrency(n int) Option {
	return func(a *Acquirer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets a logger for per-URL failures and debug events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Acquirer) { a.logger = l }
}

// NewAcquirer creates an acquirer. Fetches are sequential unless WithConcurrency says otherwise.
func NewAcquirer(opts ...Option) *Acquirer {
	a := &Acquirer{
		client:      &http.Client{},
		timeout:     defaultTimeout,
		maxBytes:    defaultMaxBytes,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire fetches every URL and appends the uploads. Blobs come back URLs first (input order)
// then uploads (input order); failures are listed in URL input order.
func (a *Acquirer) Acquire(ctx context.Context, urls []string, uploads []models.Upload) ([]models.Blob, []models.FailureRecord) {
	urls = CleanURLs(urls)
	type slot struct {
		data []byte
		err  *models.SourceFetchError
	}
	slots := make([]slot, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			data, err := a.fetch(gctx, u)
			slots[i] = slot{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()

	blobs := make([]models.Blob, 0, len(urls)+len(uploads))
	var failures []models.FailureRecord
	for i, u := range urls {
		src := models.Source{ID: u, Kind: models.SourceRemote}
		if slots[i].err != nil {
			failures = append(failures, models.FailureRecord{Source: src, Reason: slots[i].err.Reason})
			continue
		}
		blobs = append(blobs, models.Blob{Source: src, Data: slots[i].data})
	}
	for i, up := range uploads {
		name := up.Name
		if name == "" {
			name = "upload-" + strconv.Itoa(i+1)
		}
		blobs = append(blobs, models.Blob{
			Source: models.Source{ID: name, Kind: models.SourceLocal},
			Data:   up.Data,
		})
	}
	return blobs, failures
}

func (a *Acquirer) fetch(ctx context.Context, url string) ([]byte, *models.SourceFetchError) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	data, err := a.get(ctx, url)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("failed to download source", zap.String("url", url), zap.String("reason", err.Reason), zap.Error(err.Err))
		}
		return nil, err
	}
	if a.logger != nil {
		a.logger.Debug("source downloaded", zap.String("url", url), zap.Int("bytes", len(data)))
	}
	return data, nil
}

func (a *Acquirer) get(ctx context.Context, url string) ([]byte, *models.SourceFetchError) {
	fail := func(reason string, err error) *models.SourceFetchError {
		return &models.SourceFetchError{URL: url, Reason: reason, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fail("invalid url", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fail(reasonFor(ctx, err), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fail(strconv.Itoa(resp.StatusCode), fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return nil, fail(reasonFor(ctx, err), err)
	}
	if int64(len(data)) > a.maxBytes {
		return nil, fail("too large", fmt.Errorf("body exceeds %d bytes", a.maxBytes))
	}
	return data, nil
}

func reasonFor(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) && nerr.Timeout() {
		return "timeout"
	}
	return err.Error()
}

// CleanURLs trims every entry and drops blank ones, keeping input order.
func CleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ParseURLList splits a newline-separated block of URLs (one per line) into a clean list.
func ParseURLList(text string) []string {
	return CleanURLs(strings.Split(text, "\n"))
}
