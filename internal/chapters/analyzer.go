// Package chapters implements the multi-pass chapter structure analyzer for
// PDF documents: printed-table-of-contents parsing, font-size heading
// detection, alignment between the two, and three fallback strategies when
// the document carries no usable structure of its own.
package chapters

import (
	"context"
	"fmt"

	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/internal/textnorm"
	"github.com/duskline/narrator/pkg/types"
)

const maxChapters = 60

// Analyze runs the full detection pipeline against an open PDF and returns
// its chapters along with the name of the strategy that produced them. All
// stages are attempted in order; the first to yield at least two chapters
// wins.
func Analyze(ctx context.Context, doc *pdfreader.Document) ([]types.Chapter, string, error) {
	pageCount := doc.PageCount()
	if pageCount == 0 {
		return nil, "", types.ErrEmptyDocument
	}

	texter := &ctxPageTexter{ctx: ctx, doc: doc}
	boundaries := detectHeadingBoundaries(doc)

	if entries, ok := locateAndParseTOC(ctx, doc); ok {
		if chs, ok := alignTOCToBoundaries(entries, boundaries, texter, pageCount); ok {
			return finalize(chs, "toc")
		}
	}

	if chs, ok := outlineFallback(doc.Outline(), boundaries, texter, pageCount); ok {
		return finalize(chs, "toc")
	}

	if chs, ok := headingsOnlyFallback(boundaries, texter, pageCount); ok {
		return finalize(chs, "headings")
	}

	chs := pageChunkFallback(texter, pageCount)
	return finalize(chs, "auto_sections")
}

func finalize(chapters []types.Chapter, method string) ([]types.Chapter, string, error) {
	if len(chapters) == 0 {
		return nil, "", types.ErrEmptyDocument
	}
	assignLabels(chapters)
	chapters = capChapters(chapters)

	normalizer := textnorm.New()
	for i := range chapters {
		chapters[i].TextClean = normalizer.Clean(chapters[i].Text)
	}

	return chapters, method, nil
}

// assignLabels implements pass 5: every chapter-type section with a known
// number gets a "Ch. N" label; any lingering "unknown" section type
// collapses to chapter.
func assignLabels(chapters []types.Chapter) {
	for i := range chapters {
		if chapters[i].SectionType == "unknown" || chapters[i].SectionType == "" {
			chapters[i].SectionType = types.SectionChapter
		}
		if chapters[i].SectionType == types.SectionChapter && chapters[i].ChapterNumber != nil {
			chapters[i].ChapterLabel = fmt.Sprintf("Ch. %d", *chapters[i].ChapterNumber)
		}
	}
}

// capChapters enforces the 60-chapter guard rail, truncating and
// re-indexing rather than rejecting the whole document.
func capChapters(chapters []types.Chapter) []types.Chapter {
	if len(chapters) <= maxChapters {
		return chapters
	}
	return reindex(chapters[:maxChapters])
}

// TotalWordCount sums the word counts of the given chapters, used by the
// orchestrator to enforce the convert-all word budget.
func TotalWordCount(chapters []types.Chapter) int {
	total := 0
	for _, c := range chapters {
		total += c.WordCount
	}
	return total
}

type ctxPageTexter struct {
	ctx context.Context
	doc *pdfreader.Document
}

func (t *ctxPageTexter) PageText(page int) (string, error) {
	return t.doc.PageText(t.ctx, page)
}
