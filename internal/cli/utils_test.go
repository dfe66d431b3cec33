package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/pdfassist/internal/models"
)

func TestWriteProcessResult_text(t *testing.T) {
	res := &models.ProcessResult{
		FailedURLs: []models.FailureRecord{
			{Source: models.Source{ID: "https://x/404.pdf", Kind: models.SourceRemote}, Reason: "404"},
		},
		FailedUploads: []models.FailureRecord{
			{Source: models.Source{ID: "notes.pdf", Kind: models.SourceLocal}, Reason: "malformed PDF"},
		},
		Ready:       true,
		Chunks:      3,
		CorpusBytes: 120,
	}
	var buf bytes.Buffer
	if err := WriteProcessResult(&buf, res, OutputText); err != nil {
		t.Fatalf("WriteProcessResult: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Processed 3 chunks", "Failed URLs:", "https://x/404.pdf: 404", "Failed uploads:", "notes.pdf: malformed PDF"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteProcessResult_failedRun(t *testing.T) {
	res := &models.ProcessResult{Reason: models.ErrEmptyCorpus.Error()}
	var buf bytes.Buffer
	if err := WriteProcessResult(&buf, res, OutputText); err != nil {
		t.Fatalf("WriteProcessResult: %v", err)
	}
	if !strings.Contains(buf.String(), "Processing failed: no extractable text") {
		t.Errorf("got %q", buf.String())
	}
	if strings.Contains(buf.String(), "Failed URLs") {
		t.Errorf("empty failure lists should be omitted: %q", buf.String())
	}
}

func TestWriteProcessResult_JSON(t *testing.T) {
	res := &models.ProcessResult{Ready: true, Chunks: 2, FailedURLs: []models.FailureRecord{}, FailedUploads: []models.FailureRecord{}}
	var buf bytes.Buffer
	if err := WriteProcessResult(&buf, res, OutputJSON); err != nil {
		t.Fatalf("WriteProcessResult(json): %v", err)
	}
	var decoded models.ProcessResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if !decoded.Ready || decoded.Chunks != 2 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWriteAnswer_text(t *testing.T) {
	long := strings.Repeat("warranty ", 40)
	resp := &models.AskResponse{
		Answer:  "Two years.",
		Sources: []models.ScoredChunk{{Chunk: models.Chunk{Text: long}, Score: 0.9}},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, resp, OutputText); err != nil {
		t.Fatalf("WriteAnswer: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "bot: Two years.\n") {
		t.Errorf("unexpected answer line: %q", out)
	}
	if !strings.Contains(out, "[1] (0.900)") || !strings.Contains(out, "...") {
		t.Errorf("source should be numbered and truncated: %q", out)
	}
}

func TestWriteHistory_alternatesOldestFirst(t *testing.T) {
	h := models.History{
		{Question: "first?", Answer: "one"},
		{Question: "second?", Answer: "two"},
	}
	var buf bytes.Buffer
	if err := WriteHistory(&buf, h, OutputText); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"user: first?", "bot: one", "user: second?", "bot: two"}
	if len(lines) != len(want)+1 {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want)+1, len(lines), buf.String())
	}
	for i, w := range want {
		if lines[i+1] != w {
			t.Errorf("line %d = %q, want %q", i+1, lines[i+1], w)
		}
	}
}

func TestWriteHistory_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, nil, OutputText); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	if !strings.Contains(buf.String(), "No conversation yet.") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := WriteHistory(&buf, nil, OutputJSON); err != nil {
		t.Fatalf("WriteHistory(json): %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty history should encode as [], got %q", buf.String())
	}
}

func TestWriteHistory_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	h := models.History{{Question: "q", Answer: "a"}}
	if err := WriteHistory(&buf, h, OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	if !strings.Contains(buf.String(), "user: q") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}
