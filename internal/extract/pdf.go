package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrNoData is returned for a zero-length document.
var ErrNoData = errors.New("empty document")

// ExtractPages parses data as a PDF and returns one string per page.
// Pages whose text cannot be read contribute an empty string rather than an error;
// bytes that are not a readable PDF are an error. Panics raised by the parser are
// recovered and returned as errors.
func (e *Extractor) ExtractPages(data []byte) (pages []string, err error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages = make([]string, numPages)
	for i := 0; i < numPages; i++ {
		pages[i] = pageText(r, i+1)
	}
	return pages, nil
}

// pageText isolates per-page failures so one bad page does not lose the document.
func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	t, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}
