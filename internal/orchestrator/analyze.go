package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/duskline/narrator/internal/chapters"
	"github.com/duskline/narrator/internal/epubchapters"
	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/internal/textnorm"
	"github.com/duskline/narrator/internal/util"
	"github.com/duskline/narrator/pkg/types"
)

// Analyze runs the Chapter Analyzer (PDF) or the EPUB spine walk and
// records the result as a new Book, caching each chapter's cleaned text
// and a manifest to storage. It is a premium-only operation: the free tier
// never gets a chapter breakdown, only whole-document conversion.
func (o *Orchestrator) Analyze(ctx context.Context, uploadPath, filename, voice, rate, userID string, isPremium bool, manualSegments []types.ManualSegment) (types.Book, error) {
	o.cleanupIdle(ctx)

	if !isPremium {
		return types.Book{}, &types.QuotaError{Reason: "chapter analysis requires a premium account", RequiresPremium: true}
	}

	ext := extOf(filename)
	var chapterList []types.Chapter
	var method string
	var err error

	switch ext {
	case "pdf":
		chapterList, method, err = o.analyzePDF(ctx, uploadPath, manualSegments)
	case "epub":
		chapterList, err = epubchapters.Extract(uploadPath)
		method = "epub_spine"
	default:
		return types.Book{}, fmt.Errorf("%w: chapter analysis only supports pdf and epub", types.ErrUnsupportedFileType)
	}
	if err != nil {
		return types.Book{}, err
	}

	b := o.books.Create(types.Book{
		UserID:   userID,
		Filename: filename,
		Voice:    voice,
		Rate:     rate,
	})

	cacheDir := util.BookCacheDir(b.ID)
	o.books.SetPaths(b.ID, uploadPath, cacheDir)
	b.UploadPath = uploadPath
	b.CacheDir = cacheDir

	if err := o.packaging.WriteChapterCache(ctx, b.ID, filename, method, chapterList); err != nil {
		o.books.Delete(b.ID)
		return types.Book{}, err
	}
	o.books.SetChapters(b.ID, chapterList, method)
	b.Chapters = chapterList
	b.DetectionMethod = method

	os.Remove(uploadPath)
	return b, nil
}

func (o *Orchestrator) analyzePDF(ctx context.Context, uploadPath string, manualSegments []types.ManualSegment) ([]types.Chapter, string, error) {
	doc, err := pdfreader.Open(uploadPath)
	if err != nil {
		if errors.Is(err, pdfreader.ErrEncrypted) {
			return nil, "", types.ErrEncryptedPdf
		}
		return nil, "", err
	}
	defer doc.Close()

	if len(manualSegments) > 0 {
		chapterList, err := buildManualChapters(ctx, doc, manualSegments)
		return chapterList, "manual_segments", err
	}
	return chapters.Analyze(ctx, doc)
}

// buildManualChapters honors an explicit caller-supplied set of page-range
// boundaries instead of running the Chapter Analyzer's own detection.
func buildManualChapters(ctx context.Context, doc *pdfreader.Document, segments []types.ManualSegment) ([]types.Chapter, error) {
	pageCount := doc.PageCount()
	normalizer := textnorm.New()
	out := make([]types.Chapter, 0, len(segments))

	for i, seg := range segments {
		if seg.StartPage < 1 || seg.EndPage < seg.StartPage || seg.EndPage > pageCount {
			return nil, fmt.Errorf("%w: segment %q spans pages outside the document", types.ErrChapterNotFound, seg.Name)
		}

		var sb strings.Builder
		for p := seg.StartPage; p <= seg.EndPage; p++ {
			text, err := doc.PageText(ctx, p)
			if err != nil {
				return nil, err
			}
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
		raw := sb.String()
		start, end := seg.StartPage, seg.EndPage

		out = append(out, types.Chapter{
			Index:       i,
			SectionType: types.SectionChapter,
			Title:       seg.Name,
			PageStart:   &start,
			PageEnd:     &end,
			WordCount:   len(strings.Fields(raw)),
			Text:        raw,
			TextClean:   normalizer.Clean(raw),
		})
	}

	if len(out) == 0 {
		return nil, types.ErrEmptyDocument
	}
	return out, nil
}
