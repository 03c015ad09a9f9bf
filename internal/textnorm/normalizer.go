// Package textnorm cleans raw extracted document text into a form safe for
// narration: stripped footnote artifacts, collapsed whitespace, and a
// sentinel token marking forced pauses between paragraphs.
package textnorm

import (
	"regexp"
	"strings"
)

// Sentinel is the literal token inserted between paragraphs. It is
// ASCII-identifier-safe so no synthesizer mispronounces it; the TTS
// Streamer strips it before handing text to the synthesis engine.
const Sentinel = " TTSPAUSEBREAK "

var (
	superscriptDigits = regexp.MustCompile(`[\x{2070}-\x{2079}\x{00B9}\x{00B2}\x{00B3}]+`)
	bracketedCitation = regexp.MustCompile(`\[\d[\d,\-\x{2013}\x{2012} ]*\]`)
	trailingDigitRun  = regexp.MustCompile(`([\p{L}][.,;:!?]?)(\d{1,3})([\s.,;:!?]|$)`)
	multiSpace        = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalizer holds the compiled pattern set used by Clean. It is safe for
// concurrent use once constructed.
type Normalizer struct {
	superscript *regexp.Regexp
	citation    *regexp.Regexp
	digitRun    *regexp.Regexp
	spaces      *regexp.Regexp
}

// New returns a Normalizer with its patterns compiled once.
func New() *Normalizer {
	return &Normalizer{
		superscript: superscriptDigits,
		citation:    bracketedCitation,
		digitRun:    trailingDigitRun,
		spaces:      multiSpace,
	}
}

// Clean applies the narration-cleaning pipeline to a paragraph-separated
// string (paragraphs split by blank lines) and returns the cleaned,
// sentinel-joined result. Clean is idempotent: Clean(Clean(x)) == Clean(x).
func (n *Normalizer) Clean(text string) string {
	text = n.superscript.ReplaceAllString(text, "")
	text = n.citation.ReplaceAllString(text, "")
	text = n.digitRun.ReplaceAllString(text, "$1$3")
	text = n.spaces.ReplaceAllString(text, " ")

	paragraphs := splitParagraphs(text)
	var kept []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Sentinel)
}

// splitParagraphs splits on blank-line boundaries (one or more empty lines),
// matching the PDF Reader Facade's RejoinLines output shape.
func splitParagraphs(text string) []string {
	lines := strings.Split(text, "\n")
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()

	return paragraphs
}
