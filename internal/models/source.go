// Package models defines core data structures for sources, chunks, conversation turns, and pipeline results.
package models

// SourceKind tells where a document came from.
type SourceKind string

const (
	// SourceRemote is a document fetched from a URL.
	SourceRemote SourceKind = "remote"
	// SourceLocal is a document uploaded by the user as raw bytes.
	SourceLocal SourceKind = "local"
)

// Source identifies one document origin: a URL or an upload name.
type Source struct {
	ID   string     `json:"id"`
	Kind SourceKind `json:"kind"`
}

// Upload is a locally supplied document that is already resident in memory.
type Upload struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Blob is the raw content of a successfully acquired source. It only lives between
// acquisition and text extraction.
type Blob struct {
	Source Source
	Data   []byte
}

// FailureRecord explains why a source could not be acquired or parsed.
type FailureRecord struct {
	Source Source `json:"source"`
	Reason string `json:"reason"`
}
