package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/duskline/narrator/internal/docxtext"
	"github.com/duskline/narrator/internal/epubchapters"
	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/internal/textnorm"
	"github.com/duskline/narrator/internal/tts"
	"github.com/duskline/narrator/internal/util"
	"github.com/duskline/narrator/pkg/types"
)

// ConvertSingle runs the whole-document conversion path: extract, clean,
// and synthesize the entire file to one MP3 with no chapter structure. The
// conversion itself runs in the background; ConvertSingle returns as soon
// as the job is recorded.
func (o *Orchestrator) ConvertSingle(ctx context.Context, uploadPath, originalFilename, voice, rate, userID string, isPremium bool) (types.Job, error) {
	o.cleanupIdle(ctx)

	ext := extOf(originalFilename)
	if ext == "pdf" {
		if err := o.checkFreeTierPageCap(ctx, uploadPath, isPremium); err != nil {
			return types.Job{}, err
		}
	}

	j := o.jobs.Create(userID, isPremium)
	go o.runConvertSingle(context.Background(), j.ID, uploadPath, ext, originalFilename, voice, rate)
	return j, nil
}

// checkFreeTierPageCap opens the PDF only far enough to read its page
// count: the free-tier gate never triggers full text extraction.
func (o *Orchestrator) checkFreeTierPageCap(ctx context.Context, uploadPath string, isPremium bool) error {
	if isPremium {
		return nil
	}
	pageCap := o.cfg.FreeTierPageCap
	if pageCap <= 0 {
		pageCap = 50
	}
	doc, err := pdfreader.Open(uploadPath)
	if err != nil {
		if errors.Is(err, pdfreader.ErrEncrypted) {
			return fmt.Errorf("%w", types.ErrEncryptedPdf)
		}
		return err
	}
	defer doc.Close()
	if doc.PageCount() > pageCap {
		return &types.QuotaError{Reason: "document exceeds the free-tier page limit", RequiresPremium: true}
	}
	return nil
}

func (o *Orchestrator) runConvertSingle(ctx context.Context, jobID, uploadPath, ext, originalFilename, voice, rate string) {
	defer os.Remove(uploadPath)

	raw, err := o.extractWholeDocument(ctx, uploadPath, ext)
	if err != nil {
		o.jobs.MarkError(jobID, err.Error())
		return
	}

	cleaned := textnorm.New().Clean(raw)
	if strings.TrimSpace(cleaned) == "" {
		o.jobs.MarkError(jobID, types.ErrExtractedTextEmpty.Error())
		return
	}
	o.jobs.SetProgress(jobID, 15, "Text extracted")

	// The upload is only needed up to extraction; remove it now instead of
	// waiting for the deferred cleanup so a caller polling the job for
	// completion never observes a lingering upload file.
	os.Remove(uploadPath)

	base := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	outputPath := o.localPath(util.OutputPath(jobID, base))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		o.jobs.MarkError(jobID, err.Error())
		return
	}

	providerInst, err := o.providers.DefaultTTS()
	if err != nil {
		o.jobs.MarkError(jobID, err.Error())
		return
	}

	onProgress := func(percent float64, message string) error {
		if o.jobs.IsCancelled(jobID) {
			return types.ErrCancelled
		}
		o.jobs.SetProgress(jobID, percent, message)
		return nil
	}

	if err := tts.Stream(ctx, providerInst, cleaned, voice, rate, outputPath, onProgress); err != nil {
		os.Remove(outputPath)
		if errors.Is(err, types.ErrCancelled) {
			o.jobs.MarkCancelled(jobID)
			return
		}
		o.jobs.MarkError(jobID, err.Error())
		return
	}

	o.jobs.MarkCompleted(jobID, outputPath, base+".mp3")
}

// extractWholeDocument dispatches to the right extractor by extension and
// returns raw, paragraph-separated text ready for the Text Normalizer.
func (o *Orchestrator) extractWholeDocument(ctx context.Context, path, ext string) (string, error) {
	switch ext {
	case "pdf":
		doc, err := pdfreader.Open(path)
		if err != nil {
			if errors.Is(err, pdfreader.ErrEncrypted) {
				return "", types.ErrEncryptedPdf
			}
			return "", err
		}
		defer doc.Close()

		var sb strings.Builder
		for p := 1; p <= doc.PageCount(); p++ {
			text, err := doc.PageText(ctx, p)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
		if strings.TrimSpace(sb.String()) == "" {
			return "", types.ErrEmptyDocument
		}
		return sb.String(), nil

	case "epub":
		chapterList, err := epubchapters.Extract(path)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, ch := range chapterList {
			sb.WriteString(ch.Text)
			sb.WriteString("\n\n")
		}
		return sb.String(), nil

	case "docx":
		return docxtext.Extract(path)

	default:
		return "", types.ErrUnsupportedFileType
	}
}
