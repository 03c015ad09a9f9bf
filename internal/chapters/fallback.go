package chapters

import (
	"fmt"
	"strings"

	"github.com/duskline/narrator/internal/numparse"
	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/pkg/types"
)

const outlineMinEntries = 3
const outlineMinWords = 50
const outlineBoundaryWindow = 2
const headingsOnlyMinEntries = 2
const headingsOnlyMinWords = 100
const pageChunkSize = 20

type outlineEntry struct {
	title string
	depth int
}

// outlineFallback implements the outline fallback: pick the outline level
// with the most entries, at least 3 (ties go to the deepest level tried first),
// resolve each entry to a page by sequentially scanning page text for the
// title, and build consecutive ranges from the resolved pages.
func outlineFallback(root pdfreader.OutlineNode, boundaries []boundary, doc pageTexter, pageCount int) ([]types.Chapter, bool) {
	var flat []outlineEntry
	var walk func(n pdfreader.OutlineNode, depth int)
	walk = func(n pdfreader.OutlineNode, depth int) {
		if n.Title != "" {
			flat = append(flat, outlineEntry{title: n.Title, depth: depth})
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, c := range root.Children {
		walk(c, 1)
	}
	if len(flat) == 0 {
		return nil, false
	}

	byDepth := make(map[int][]outlineEntry)
	maxDepth := 0
	for _, e := range flat {
		byDepth[e.depth] = append(byDepth[e.depth], e)
		if e.depth > maxDepth {
			maxDepth = e.depth
		}
	}

	bestDepth, bestCount := -1, 0
	for d := maxDepth; d >= 1; d-- {
		c := len(byDepth[d])
		if c >= outlineMinEntries && c > bestCount {
			bestCount = c
			bestDepth = d
		}
	}
	if bestDepth == -1 {
		return nil, false
	}
	entries := byDepth[bestDepth]

	pages := resolveOutlinePages(doc, entries, pageCount)

	var chapters []types.Chapter
	for i, e := range entries {
		page := pages[i]
		if page == 0 {
			continue
		}
		endPage := pageCount + 1
		for j := i + 1; j < len(entries); j++ {
			if pages[j] != 0 {
				endPage = pages[j]
				break
			}
		}
		if endPage <= page {
			continue
		}

		kind, number := classifyOutlineTitle(e.title)
		if number == nil {
			number = inheritNumberFromBoundary(boundaries, page, outlineBoundaryWindow)
		}

		text := extractPageRangeText(doc, page, endPage)
		wordCount := len(strings.Fields(text))
		if wordCount < outlineMinWords {
			continue
		}

		sp, ep := page, endPage-1
		chapters = append(chapters, types.Chapter{
			SectionType:   kind,
			ChapterNumber: number,
			Title:         e.title,
			PageStart:     &sp,
			PageEnd:       &ep,
			WordCount:     wordCount,
			Text:          text,
		})
	}

	if len(chapters) < 2 {
		return nil, false
	}
	return reindex(chapters), true
}

func resolveOutlinePages(doc pageTexter, entries []outlineEntry, pageCount int) []int {
	pages := make([]int, len(entries))
	cursor := 1
	for i, e := range entries {
		needle := normalizeAlpha(e.title)
		if needle == "" {
			continue
		}
		for p := cursor; p <= pageCount; p++ {
			text, err := doc.PageText(p)
			if err != nil {
				continue
			}
			if strings.Contains(normalizeAlpha(text), needle) {
				pages[i] = p
				cursor = p
				break
			}
		}
	}
	return pages
}

func classifyOutlineTitle(title string) (types.SectionType, *int) {
	trimmed := strings.TrimSpace(title)
	if m := partNumOnlyRe.FindStringSubmatch(trimmed); m != nil {
		return types.SectionPart, nil
	}
	if m := chapterWordRe.FindStringSubmatch(trimmed); m != nil {
		if n, ok := numparse.Parse(m[1]); ok {
			return types.SectionChapter, &n
		}
		return types.SectionChapter, nil
	}
	if kind, ok := frontBackKeywordMatch(trimmed); ok {
		return kind, nil
	}
	return types.SectionChapter, nil
}

func inheritNumberFromBoundary(boundaries []boundary, page, window int) *int {
	for _, b := range boundaries {
		if b.chapterNumber == nil {
			continue
		}
		if absInt(b.page-page) <= window {
			n := *b.chapterNumber
			return &n
		}
	}
	return nil
}

// headingsOnlyFallback builds chapters directly from pass-2 boundaries when
// neither the TOC nor the outline yielded a usable structure.
func headingsOnlyFallback(boundaries []boundary, doc pageTexter, pageCount int) ([]types.Chapter, bool) {
	var usable []boundary
	for _, b := range boundaries {
		if b.kind != types.SectionPart {
			usable = append(usable, b)
		}
	}
	if len(usable) < headingsOnlyMinEntries {
		return nil, false
	}

	var chapters []types.Chapter
	for i, b := range usable {
		endPage := pageCount + 1
		if i+1 < len(usable) {
			endPage = usable[i+1].page
		}
		if endPage <= b.page {
			continue
		}

		text := extractPageRangeText(doc, b.page, endPage)
		wordCount := len(strings.Fields(text))
		if wordCount < headingsOnlyMinWords {
			continue
		}

		kind := b.kind
		if kind == "unknown" || kind == "" {
			kind = types.SectionChapter
		}

		sp, ep := b.page, endPage-1
		chapters = append(chapters, types.Chapter{
			SectionType:   kind,
			ChapterNumber: b.chapterNumber,
			Title:         b.headingText,
			PageStart:     &sp,
			PageEnd:       &ep,
			WordCount:     wordCount,
			Text:          text,
		})
	}

	if len(chapters) < 2 {
		return nil, false
	}
	return reindex(chapters), true
}

// pageChunkFallback is the last resort: fixed-size page slices with no
// structural basis at all.
func pageChunkFallback(doc pageTexter, pageCount int) []types.Chapter {
	var chapters []types.Chapter
	k := 1
	for start := 1; start <= pageCount; start += pageChunkSize {
		end := start + pageChunkSize
		if end > pageCount+1 {
			end = pageCount + 1
		}
		text := extractPageRangeText(doc, start, end)
		sp, ep := start, end-1
		chapters = append(chapters, types.Chapter{
			SectionType: types.SectionChapter,
			Title:       fmt.Sprintf("Section %d (Pages %d-%d)", k, sp, ep),
			PageStart:   &sp,
			PageEnd:     &ep,
			WordCount:   len(strings.Fields(text)),
			Text:        text,
		})
		k++
	}
	return reindex(chapters)
}
