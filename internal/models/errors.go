package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch means neither URLs nor uploads were supplied.
	ErrEmptyBatch = errors.New("no sources supplied")
	// ErrEmptyCorpus means every source failed or yielded no text.
	ErrEmptyCorpus = errors.New("no extractable text")
	// ErrNotReady means a question was asked before any index was built.
	ErrNotReady = errors.New("index not built: process some documents first")
	// ErrEmptyQuestion means the question was blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

// SourceFetchError is a per-URL acquisition failure. It never aborts a batch.
type SourceFetchError struct {
	URL    string
	Reason string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ExtractionError is a per-document parse failure. It never aborts a batch.
type ExtractionError struct {
	Source Source
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source.ID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IndexingError aborts a processing run when the embedding capability fails.
type IndexingError struct {
	Err error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed: %v", e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// ModelInvocationError aborts a single question when the generative model fails.
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }
