package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/pdfassist/internal/models"
)

func newStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "transcripts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_Turns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	turns := []models.Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}
	// Insert out of order; listing follows seq.
	if err := store.RecordTurn(ctx, "s1", 2, turns[1]); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordTurn(ctx, "s1", 1, turns[0]); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordTurn(ctx, "s2", 1, models.Turn{Question: "other", Answer: "x"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Question != "q1" || got[1].Answer != "a2" {
		t.Errorf("got %+v", got)
	}
	if got[0].AskedAt.IsZero() {
		t.Error("AskedAt should be set")
	}

	// A repeated seq is rejected and the recorded turn is kept.
	if err := store.RecordTurn(ctx, "s1", 1, models.Turn{Question: "q1b", Answer: "a1b"}); err == nil {
		t.Error("expected duplicate seq to be rejected")
	}
	got, _ = store.ListTurns(ctx, "s1")
	if len(got) != 2 || got[0].Question != "q1" {
		t.Errorf("after duplicate got %+v", got)
	}

	empty, err := store.ListTurns(ctx, "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("unknown session: %+v", empty)
	}
}

func TestSQLiteStorage_Runs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	res := &models.ProcessResult{
		Ready:  true,
		Chunks: 3,
		FailedURLs: []models.FailureRecord{
			{Source: models.Source{ID: "https://x/y.pdf", Kind: models.SourceRemote}, Reason: "404"},
		},
	}
	if err := store.RecordRun(ctx, "s1", res); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordRun(ctx, "s1", &models.ProcessResult{Reason: "no sources supplied"}); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountRuns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountRuns = %d, want 2", n)
	}
	if n, _ := store.CountRuns(ctx, "s2"); n != 0 {
		t.Errorf("CountRuns(s2) = %d", n)
	}
	size, err := store.SizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if size == 0 {
		t.Error("expected non-zero database size")
	}
}
