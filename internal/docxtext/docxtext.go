// Package docxtext extracts the plain paragraph text of a .docx file's
// body. This is the "routine parsing" the spec puts out of scope for
// DOCX: convert_single only needs the whole document as one narration
// string, not a chapter structure, so a minimal OOXML walk is enough. No
// DOCX library appears anywhere in the retrieved example pack, so this
// stays on the standard library (archive/zip + encoding/xml read the
// well-documented OOXML body part directly).
package docxtext

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/duskline/narrator/pkg/types"
)

// wordDocument is a minimal mirror of word/document.xml: only the
// paragraph and run text nodes the narration needs are decoded.
type wordDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// Extract returns the body paragraphs of a .docx file, blank-line
// separated to match the shape the Text Normalizer expects.
func Extract(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%w: word/document.xml missing", types.ErrEmptyDocument)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var paragraphs []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range p.Runs {
			for _, t := range run.Text {
				sb.WriteString(t)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	if len(paragraphs) == 0 {
		return "", types.ErrEmptyDocument
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
