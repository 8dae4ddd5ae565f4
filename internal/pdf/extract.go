// Package pdf turns uploaded PDF bytes into plain text for the conversation.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"lawgic/internal/model"

	"github.com/ledongthuc/pdf"
)

// Character budgets applied to extracted text. PreviewLimit bounds what is
// echoed on screen; ContextLimit bounds what is injected as system context.
const (
	PreviewLimit = 1500
	ContextLimit = 3000
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n"

// Result is the transient outcome of one extraction.
type Result struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	Pages     int    `json:"pages"`
}

// PageReader returns the plain text of each page, in page order.
type PageReader interface {
	ReadPages(data []byte) ([]string, error)
}

type Extractor struct {
	reader PageReader
}

func NewExtractor() *Extractor {
	return &Extractor{reader: ledongthucReader{}}
}

// NewExtractorWithReader swaps the parsing collaborator.
func NewExtractorWithReader(r PageReader) *Extractor {
	return &Extractor{reader: r}
}

// Extract parses data and keeps at most limit characters. A limit <= 0 keeps
// everything. Unreadable input fails with *model.DocumentParseError.
func (e *Extractor) Extract(data []byte, limit int) (*Result, error) {
	if len(data) == 0 {
		return nil, &model.DocumentParseError{Err: fmt.Errorf("empty document")}
	}

	pages, err := e.reader.ReadPages(data)
	if err != nil {
		return nil, &model.DocumentParseError{Err: err}
	}

	text, truncated := Truncate(strings.Join(pages, PageSeparator), limit)

	return &Result{
		Text:      text,
		Truncated: truncated,
		Pages:     len(pages),
	}, nil
}

// Truncate keeps the first limit runes of s and reports whether anything was
// dropped. A limit <= 0 disables truncation.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}

	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// Preview is the on-screen excerpt: the first PreviewLimit characters,
// followed by an ellipsis when the text was longer.
func Preview(s string, limit int) string {
	out, truncated := Truncate(s, limit)
	if truncated {
		return out + "..."
	}
	return out
}

type ledongthucReader struct{}

func (ledongthucReader) ReadPages(data []byte) (pages []string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
