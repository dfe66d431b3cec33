// Package cli provides output writers for the pdfassist command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const sourcePreviewLen = 160

// WriteProcessResult writes the outcome of a processing run, including every failed source.
func WriteProcessResult(w io.Writer, res *models.ProcessResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if res.Ready {
		fmt.Fprintf(w, "Processed %d chunks (%d bytes of text)\n", res.Chunks, res.CorpusBytes)
	} else {
		fmt.Fprintf(w, "Processing failed: %s\n", res.Reason)
	}
	writeFailures(w, "Failed URLs", res.FailedURLs)
	writeFailures(w, "Failed uploads", res.FailedUploads)
	return nil
}

func writeFailures(w io.Writer, title string, failures []models.FailureRecord) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, f := range failures {
		fmt.Fprintf(w, "  - %s: %s\n", f.Source.ID, f.Reason)
	}
}

// WriteAnswer writes one answer and the passages it was grounded on.
func WriteAnswer(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "bot: %s\n", resp.Answer)
	for i, src := range resp.Sources {
		fmt.Fprintf(w, "  [%d] (%.3f) %s\n", i+1, src.Score, utils.Truncate(src.Chunk.Text, sourcePreviewLen))
	}
	return nil
}

// WriteHistory writes the conversation oldest first, alternating user and bot messages.
func WriteHistory(w io.Writer, h models.History, format OutputFormat) error {
	msgs := h.Messages()
	if format == OutputJSON {
		return writeJSON(w, msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No conversation yet.")
		return nil
	}
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: %s\n", m.Sender, m.Text)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
