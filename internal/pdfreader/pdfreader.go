// Package pdfreader is a thin facade over github.com/Geek0x0/pdf that gives
// the Chapter Analyzer the three things it needs per page: plain text for
// printed-TOC parsing, styled text runs (with font size) for heading
// detection, and the document outline for the outline fallback. It also
// rejoins hard-wrapped lines into paragraphs the same way the rest of the
// pipeline expects.
package pdfreader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Geek0x0/pdf"
)

// ErrEncrypted is returned by Open when the PDF is password-protected.
var ErrEncrypted = errors.New("pdf is password-protected")

// Span is a single styled run of text on a page, carrying the attributes
// the heading detector needs (font size, position) without exposing the
// underlying library's types to callers.
type Span struct {
	Font     string
	FontSize float64
	X, Y     float64
	Text     string
}

// OutlineNode mirrors the document's embedded outline tree, if the PDF
// carries one in its catalog.
type OutlineNode struct {
	Title    string
	Children []OutlineNode
}

// Document is an open PDF ready for per-page extraction. Callers must call
// Close when done.
type Document struct {
	file   *os.File
	reader *pdf.Reader
}

// Open reads the PDF at path and returns a Document positioned at page 1.
// When the file is password protected the returned error wraps this
// package's ErrEncrypted.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrEncrypted) {
			return nil, fmt.Errorf("%s: %w", path, ErrEncrypted)
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{file: f, reader: r}, nil
}

// Close releases the underlying file handle.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// PageText returns the rejoined plain text of the 1-indexed page.
func (d *Document) PageText(ctx context.Context, pageNum int) (string, error) {
	page := d.reader.Page(pageNum)
	raw, err := page.GetPlainText(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", pageNum, err)
	}
	return RejoinLines(raw), nil
}

// PageSpans returns the styled text runs on the 1-indexed page, used by the
// heading detector to find font-size outliers.
func (d *Document) PageSpans(pageNum int) ([]Span, error) {
	page := d.reader.Page(pageNum)
	content := page.Content()
	spans := make([]Span, 0, len(content.Text))
	for _, t := range content.Text {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		spans = append(spans, Span{
			Font:     t.Font,
			FontSize: t.FontSize,
			X:        t.X,
			Y:        t.Y,
			Text:     s,
		})
	}
	return spans, nil
}

// Outline returns the document's embedded table of contents, if any. The
// root node's own Title is typically empty; its Children are the top-level
// entries.
func (d *Document) Outline() OutlineNode {
	return convertOutline(d.reader.Outline())
}

func convertOutline(o pdf.Outline) OutlineNode {
	node := OutlineNode{Title: o.Title}
	for _, c := range o.Child {
		node.Children = append(node.Children, convertOutline(c))
	}
	return node
}

// RejoinLines turns a page's raw line-broken text into paragraphs: a blank
// line marks a paragraph break, a single newline marks a hard wrap that
// gets joined with a space, and runs of interior double spaces left by the
// wrap are collapsed to one.
func RejoinLines(raw string) string {
	lines := strings.Split(raw, "\n")
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, " ")
		for strings.Contains(joined, "  ") {
			joined = strings.ReplaceAll(joined, "  ", " ")
		}
		paragraphs = append(paragraphs, joined)
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimSpace(trimmed))
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}
