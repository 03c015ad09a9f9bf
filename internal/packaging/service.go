// Package packaging writes a book's on-disk cache: one cleaned chapter
// text file per chapter plus a book.json manifest, per spec section 6's
// filesystem layout.
package packaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/duskline/narrator/internal/storage"
	"github.com/duskline/narrator/internal/util"
	"github.com/duskline/narrator/pkg/types"
)

// Service writes a book's chapter cache and manifest to a storage.Adapter.
type Service struct {
	storage storage.Adapter
}

// NewService returns a Service backed by the given storage adapter.
func NewService(storage storage.Adapter) *Service {
	return &Service{storage: storage}
}

// WriteChapterCache writes every chapter's cleaned narration text to
// cache_dir/chapter_NN.txt and a book.json manifest alongside it.
func (s *Service) WriteChapterCache(ctx context.Context, bookID, filename, detectionMethod string, chapters []types.Chapter) error {
	entries := make([]types.ChapterManifestEntry, len(chapters))
	for i, ch := range chapters {
		path := util.ChapterCachePath(bookID, ch.Index)
		if err := s.storage.Put(ctx, path, strings.NewReader(ch.TextClean)); err != nil {
			return fmt.Errorf("write chapter %d text: %w", ch.Index, err)
		}
		entries[i] = types.ChapterManifestEntry{
			Index:            ch.Index,
			Title:            ch.Title,
			ChapterLabel:     ch.ChapterLabel,
			WordCount:        ch.WordCount,
			EstimatedMinutes: estimateMinutes(ch.WordCount),
			PageStart:        ch.PageStart,
			PageEnd:          ch.PageEnd,
			JobID:            nil,
			Status:           "pending",
		}
	}

	manifest := types.BookManifest{
		Filename:        filename,
		DetectionMethod: detectionMethod,
		Chapters:        entries,
	}
	return s.writeManifest(ctx, bookID, manifest)
}

// UpdateManifestEntry patches a single chapter's job id and status into an
// existing book.json, called as chapter jobs are created and as they
// transition.
func (s *Service) UpdateManifestEntry(ctx context.Context, bookID string, index int, jobID string, status types.JobStatus) error {
	manifest, err := s.ReadManifest(ctx, bookID)
	if err != nil {
		return err
	}
	for i := range manifest.Chapters {
		if manifest.Chapters[i].Index == index {
			manifest.Chapters[i].JobID = &jobID
			manifest.Chapters[i].Status = status
			return s.writeManifest(ctx, bookID, *manifest)
		}
	}
	return fmt.Errorf("chapter %d not found in manifest", index)
}

// ReadManifest loads a book's book.json.
func (s *Service) ReadManifest(ctx context.Context, bookID string) (*types.BookManifest, error) {
	r, err := s.storage.Get(ctx, util.ManifestPath(bookID))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer r.Close()

	var manifest types.BookManifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &manifest, nil
}

// ReadChapterText reads a chapter's cached, cleaned narration text.
func (s *Service) ReadChapterText(ctx context.Context, bookID string, index int) (string, error) {
	r, err := s.storage.Get(ctx, util.ChapterCachePath(bookID, index))
	if err != nil {
		return "", fmt.Errorf("read chapter %d text: %w", index, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read chapter %d text: %w", index, err)
	}
	return string(data), nil
}

func (s *Service) writeManifest(ctx context.Context, bookID string, manifest types.BookManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := s.storage.Put(ctx, util.ManifestPath(bookID), strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// estimateMinutes uses a 150 words-per-minute narration rate, matching
// the TTS Streamer's byte-estimate heuristic order of magnitude.
func estimateMinutes(wordCount int) float64 {
	return float64(wordCount) / 150.0
}
