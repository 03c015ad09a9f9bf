// Package epubchapters builds the chapter list for an EPUB source by
// walking the spine in reading order and overlaying the book's own table of
// contents, the analysis spec.md's companion path to the PDF Chapter
// Analyzer for documents that already carry real chapter boundaries.
package epubchapters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/simp-lee/epub"

	"github.com/duskline/narrator/internal/numparse"
	"github.com/duskline/narrator/internal/textnorm"
	"github.com/duskline/narrator/pkg/types"
)

const minWordsForChapter = 50
const maxChapters = 60

var chapterNumberPattern = regexp.MustCompile(`(?i)chapter\s+([a-z0-9-]+)`)
var bodyClassPattern = regexp.MustCompile(`(?is)<body[^>]*\bclass\s*=\s*["']([^"']*)["']`)

// frontMatterHints and backMatterHints classify every spine entry by
// substrings of its href and title, the same heuristic a printed
// front/back matter section name would suggest.
var frontMatterHints = []string{"cover", "title", "copyright", "dedication", "preface", "foreword", "acknowledg"}
var backMatterHints = []string{"appendix", "index", "glossary", "bibliography", "colophon", "about-the-author", "aboutauthor"}

// Extract opens the ePub at path and returns its chapters in spine order,
// skipping non-linear entries (ads, license boilerplate) and sections under
// minWordsForChapter words.
func Extract(path string) ([]types.Chapter, error) {
	book, err := epub.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer book.Close()

	tocHrefs := flattenTOCTitles(book.TOC())
	normalizer := textnorm.New()

	var chapters []types.Chapter
	index := 0
	for _, ch := range book.ContentChapters() {
		if !ch.Linear || ch.IsLicense {
			continue
		}

		if isNavOrTOCDocument(ch) {
			continue
		}

		text, err := ch.TextContent()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}

		wordCount := len(strings.Fields(text))
		if wordCount < minWordsForChapter {
			continue
		}

		title := ch.Title
		if title == "" {
			title = tocHrefs[stripFragment(ch.Href)]
		}
		if title == "" {
			title = fmt.Sprintf("Section %d", index+1)
		}

		sectionType := classify(ch.Href, title)
		chapterNumber := recoverChapterNumber(title, text)

		label := ""
		if sectionType == types.SectionChapter && chapterNumber != nil {
			label = fmt.Sprintf("Ch. %d", *chapterNumber)
		}

		chapters = append(chapters, types.Chapter{
			Index:         index,
			SectionType:   sectionType,
			ChapterNumber: chapterNumber,
			Title:         title,
			ChapterLabel:  label,
			WordCount:     wordCount,
			Text:          text,
			TextClean:     normalizer.Clean(text),
		})
		index++
	}

	if len(chapters) == 0 {
		return nil, types.ErrEmptyDocument
	}

	return capChapters(chapters), nil
}

// isNavOrTOCDocument reports whether a spine item's own <body class="...">
// names it as a navigation or table-of-contents document (spec 4.3.6: skip
// items whose body class contains "nav" or "toc", alongside the library's
// own Linear/IsLicense filtering).
func isNavOrTOCDocument(ch epub.Chapter) bool {
	raw, err := ch.RawContent()
	if err != nil {
		return false
	}
	m := bodyClassPattern.FindSubmatch(raw)
	if m == nil {
		return false
	}
	class := strings.ToLower(string(m[1]))
	return strings.Contains(class, "nav") || strings.Contains(class, "toc")
}

// recoverChapterNumber looks for "Chapter <N>" in the title first, falling
// back to the first 500 characters of body text, matching the spec's EPUB
// number-recovery order.
func recoverChapterNumber(title, bodyText string) *int {
	if n, ok := matchChapterNumber(title); ok {
		return &n
	}
	prefix := bodyText
	if len(prefix) > 500 {
		prefix = prefix[:500]
	}
	if n, ok := matchChapterNumber(prefix); ok {
		return &n
	}
	return nil
}

func matchChapterNumber(s string) (int, bool) {
	m := chapterNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return numparse.Parse(m[1])
}

// capChapters enforces the 60-chapter guard rail shared with the PDF
// Chapter Analyzer, truncating and re-indexing rather than rejecting.
func capChapters(chapters []types.Chapter) []types.Chapter {
	if len(chapters) <= maxChapters {
		return chapters
	}
	chapters = chapters[:maxChapters]
	for i := range chapters {
		chapters[i].Index = i
	}
	return chapters
}

// flattenTOCTitles walks the TOC tree and indexes titles by their target
// href (fragment stripped); when several nodes share an href the first one
// visited wins. Spine entries whose href has no TOC node get no title here.
func flattenTOCTitles(items []epub.TOCItem) map[string]string {
	out := make(map[string]string)
	var walk func([]epub.TOCItem)
	walk = func(items []epub.TOCItem) {
		for _, item := range items {
			href := stripFragment(item.Href)
			if href != "" {
				if _, exists := out[href]; !exists {
					out[href] = item.Title
				}
			}
			walk(item.Children)
		}
	}
	walk(items)
	return out
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

func classify(href, title string) types.SectionType {
	lower := strings.ToLower(href + " " + title)
	for _, hint := range frontMatterHints {
		if strings.Contains(lower, hint) {
			return types.SectionFrontMatter
		}
	}
	for _, hint := range backMatterHints {
		if strings.Contains(lower, hint) {
			return types.SectionBackMatter
		}
	}
	return types.SectionChapter
}
