// Package indexer splits the corpus into chunks and builds the searchable index over them.
package indexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hyperjump/pdfassist/internal/models"
)

const (
	DefaultSeparator = "\n"
	DefaultChunkSize = 800
	DefaultOverlap   = 50
)

// Chunker splits text on a separator and packs the pieces into overlapping chunks.
// Sizes are measured in characters (runes).
type Chunker struct {
	separator string
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. A non-positive size falls back to the default;
// an overlap that is not smaller than the size is reduced to a quarter of it.
func NewChunker(separator string, chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{separator: separator, chunkSize: chunkSize, overlap: overlap}
}

type segment struct {
	start, end int // byte offsets into the corpus
	runes      int
}

// Chunk splits corpus into ordered chunks. Separators stay attached to the text before them,
// so the chunks cover the corpus with no gaps. An empty corpus yields nil.
func (c *Chunker) Chunk(corpus string) []models.Chunk {
	segs := c.split(corpus)
	if len(segs) == 0 {
		return nil
	}
	batch := uuid.New().String()[:8]
	var chunks []models.Chunk
	first, next := 0, 0
	for next < len(segs) {
		size := 0
		for i := first; i < next; i++ {
			size += segs[i].runes
		}
		end := next
		size += segs[end].runes
		end++
		for end < len(segs) && size+segs[end].runes <= c.chunkSize {
			size += segs[end].runes
			end++
		}
		start, stop := segs[first].start, segs[end-1].end
		chunks = append(chunks, models.Chunk{
			ID:    fmt.Sprintf("%s-chunk-%d", batch, len(chunks)),
			Index: len(chunks),
			Text:  corpus[start:stop],
			Start: start,
			End:   stop,
		})
		if end == len(segs) {
			break
		}
		first, next = c.overlapStart(segs, first, end), end
	}
	return chunks
}

// overlapStart picks the first segment of the next chunk: the longest run of whole trailing
// segments of [first, end) that fits the overlap budget and leaves room for segs[end].
func (c *Chunker) overlapStart(segs []segment, first, end int) int {
	o, carried := end, 0
	for o-1 > first {
		n := segs[o-1].runes
		if carried+n > c.overlap || carried+n+segs[end].runes > c.chunkSize {
			break
		}
		carried += n
		o--
	}
	return o
}

func (c *Chunker) split(corpus string) []segment {
	if corpus == "" {
		return nil
	}
	var parts []string
	if c.separator == "" {
		parts = []string{corpus}
	} else {
		parts = strings.SplitAfter(corpus, c.separator)
	}
	segs := make([]segment, 0, len(parts))
	off := 0
	for _, p := range parts {
		if p == "" {
			continue
		}
		segs = append(segs, segment{start: off, end: off + len(p), runes: utf8.RuneCountInString(p)})
		off += len(p)
	}
	return segs
}

// Reconstruct joins chunks back into the text they were cut from, dropping the overlap each
// chunk shares with its predecessor.
func Reconstruct(chunks []models.Chunk) string {
	var sb strings.Builder
	prevEnd := 0
	for _, ch := range chunks {
		skip := prevEnd - ch.Start
		if skip < 0 {
			skip = 0
		}
		if skip < len(ch.Text) {
			sb.WriteString(ch.Text[skip:])
		}
		if ch.End > prevEnd {
			prevEnd = ch.End
		}
	}
	return sb.String()
}
