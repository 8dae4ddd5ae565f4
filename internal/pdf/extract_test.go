package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"lawgic/internal/model"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
// Page text must not contain parentheses or backslashes.
func buildPDF(pages []string) []byte {
	var buf bytes.Buffer
	offsets := []int{0}

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n")

	n := len(pages)
	fontID := 3 + 2*n
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, 4+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)

	return buf.Bytes()
}

func repeatText(word string, n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(word)
	}
	return b.String()[:n]
}

func TestExtractTwoPagePDF(t *testing.T) {
	page1 := repeatText("Tenant rights ", 250)
	page2 := repeatText("Notice period ", 249)
	data := buildPDF([]string{page1, page2})

	res, err := NewExtractor().Extract(data, ContextLimit)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := page1 + PageSeparator + page2
	if utf8.RuneCountInString(want) != 500 {
		t.Fatalf("fixture length = %d, want 500", utf8.RuneCountInString(want))
	}
	if res.Truncated {
		t.Error("Extract() truncated = true for a 500 character document")
	}
	if res.Text != want {
		t.Errorf("Extract() text = %q, want %q", res.Text, want)
	}
	if res.Pages != 2 {
		t.Errorf("Extract() pages = %d, want 2", res.Pages)
	}
}

func TestExtractTruncatesRealPDF(t *testing.T) {
	data := buildPDF([]string{repeatText("Lease clause ", 1200), repeatText("Deposit ", 1200)})

	res, err := NewExtractor().Extract(data, PreviewLimit)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !res.Truncated {
		t.Error("Extract() truncated = false, want true")
	}
	if got := utf8.RuneCountInString(res.Text); got != PreviewLimit {
		t.Errorf("Extract() kept %d characters, want %d", got, PreviewLimit)
	}
}

func TestExtractCorruptBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("this is definitely not a PDF document")},
		{name: "truncated pdf", data: buildPDF([]string{"hello"})[:60]},
		{name: "header only", data: append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 200)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewExtractor().Extract(tt.data, ContextLimit)
			if err == nil {
				t.Fatalf("Extract() = %+v, want error", res)
			}
			if !model.IsDocumentParse(err) {
				t.Errorf("Extract() error = %T %v, want DocumentParseError", err, err)
			}
		})
	}
}

type fakePages struct {
	pages []string
	err   error
}

func (f fakePages) ReadPages([]byte) ([]string, error) {
	return f.pages, f.err
}

func TestExtractWithReader(t *testing.T) {
	tests := []struct {
		name          string
		pages         []string
		limit         int
		wantText      string
		wantTruncated bool
	}{
		{name: "page order kept", pages: []string{"one", "two", "three"}, limit: 100, wantText: "one\ntwo\nthree"},
		{name: "exact limit", pages: []string{"abcd", "e"}, limit: 6, wantText: "abcd\ne"},
		{name: "over limit", pages: []string{"abcd", "efgh"}, limit: 6, wantText: "abcd\ne", wantTruncated: true},
		{name: "no limit", pages: []string{"abcd", "efgh"}, limit: 0, wantText: "abcd\nefgh"},
		{name: "multibyte runes", pages: []string{"§§§§", "ééé"}, limit: 5, wantText: "§§§§\n", wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewExtractorWithReader(fakePages{pages: tt.pages}).Extract([]byte("x"), tt.limit)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if res.Text != tt.wantText || res.Truncated != tt.wantTruncated {
				t.Errorf("Extract() = (%q, %v), want (%q, %v)", res.Text, res.Truncated, tt.wantText, tt.wantTruncated)
			}
		})
	}
}

func TestExtractReaderError(t *testing.T) {
	cause := errors.New("encrypted")
	_, err := NewExtractorWithReader(fakePages{err: cause}).Extract([]byte("x"), 10)
	if !model.IsDocumentParse(err) || !errors.Is(err, cause) {
		t.Errorf("Extract() error = %v, want DocumentParseError wrapping cause", err)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 10); got != "short" {
		t.Errorf("Preview(short) = %q", got)
	}
	if got := Preview("abcdefghij", 4); got != "abcd..." {
		t.Errorf("Preview() = %q, want abcd...", got)
	}
}
