// Package extract turns retrieved document bytes into plain text and assembles the corpus.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/pdfassist/internal/models"
	"go.uber.org/zap"
)

// Extractor extracts plain text from PDF documents.
type Extractor struct {
	logger *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a logger for per-document failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the text of every page of blob, concatenated in page order.
// A blob that does not parse as a PDF yields an *models.ExtractionError.
func (e *Extractor) Extract(blob models.Blob) (string, error) {
	pages, err := e.ExtractPages(blob.Data)
	if err != nil {
		return "", &models.ExtractionError{Source: blob.Source, Err: err}
	}
	return strings.Join(pages, ""), nil
}

// BuildCorpus extracts every blob in order and concatenates the texts.
// Documents that fail to parse are skipped and reported; they never abort the batch.
func (e *Extractor) BuildCorpus(blobs []models.Blob) (string, []models.FailureRecord) {
	var sb strings.Builder
	var failures []models.FailureRecord
	for _, b := range blobs {
		text, err := e.Extract(b)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("extraction failed", zap.String("source", b.Source.ID), zap.Error(err))
			}
			failures = append(failures, models.FailureRecord{Source: b.Source, Reason: reasonFor(err)})
			continue
		}
		if e.logger != nil {
			e.logger.Debug("extracted", zap.String("source", b.Source.ID), zap.Int("bytes", len(text)))
		}
		sb.WriteString(text)
	}
	return sb.String(), failures
}

func reasonFor(err error) string {
	var xe *models.ExtractionError
	if errors.As(err, &xe) && xe.Err != nil {
		return xe.Err.Error()
	}
	return fmt.Sprint(err)
}
