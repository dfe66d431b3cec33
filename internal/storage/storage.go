// Package storage records processing runs and conversation transcripts. The index itself is
// never persisted.
package storage

import (
	"context"

	"github.com/hyperjump/pdfassist/internal/models"
)

// Storage defines transcript persistence operations.
type Storage interface {
	RecordRun(ctx context.Context, sessionID string, result *models.ProcessResult) error
	RecordTurn(ctx context.Context, sessionID string, seq int, turn models.Turn) error
	ListTurns(ctx context.Context, sessionID string) (models.History, error)
	CountRuns(ctx context.Context, sessionID string) (int64, error)
	SizeBytes() (int64, error)
	Close() error
}
