package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/duskline/narrator/internal/chapters"
	"github.com/duskline/narrator/internal/tts"
	"github.com/duskline/narrator/internal/util"
	"github.com/duskline/narrator/pkg/types"
)

// ConvertChapter starts (or returns the existing job for) synthesis of a
// single chapter of an already-analyzed book. Calling it again for a
// chapter whose job is still processing or already completed returns that
// job rather than starting a duplicate worker.
func (o *Orchestrator) ConvertChapter(ctx context.Context, bookID string, chapterIndex int, userID string, isPremium bool) (types.Job, error) {
	o.cleanupIdle(ctx)

	if !isPremium {
		return types.Job{}, &types.QuotaError{Reason: "per-chapter conversion requires a premium account", RequiresPremium: true}
	}
	if err := o.books.CheckOwnership(bookID, userID); err != nil {
		return types.Job{}, err
	}
	b, ok := o.books.Get(bookID)
	if !ok {
		return types.Job{}, types.ErrChapterNotFound
	}
	if chapterIndex < 0 || chapterIndex >= len(b.Chapters) {
		return types.Job{}, types.ErrChapterNotFound
	}

	if existing, ok := o.existingChapterJob(bookID, chapterIndex); ok {
		return existing, nil
	}

	j := o.startChapterJob(bookID, chapterIndex, userID, isPremium, b.Voice, b.Rate)
	return j, nil
}

// ConvertAll starts a chapter job for every chapter in the book that does
// not already have one in flight or completed, refusing outright if the
// book's total word count exceeds the configured budget.
func (o *Orchestrator) ConvertAll(ctx context.Context, bookID, userID string, isPremium bool) ([]types.Job, error) {
	o.cleanupIdle(ctx)

	if !isPremium {
		return nil, &types.QuotaError{Reason: "whole-book conversion requires a premium account", RequiresPremium: true}
	}
	if err := o.books.CheckOwnership(bookID, userID); err != nil {
		return nil, err
	}
	b, ok := o.books.Get(bookID)
	if !ok {
		return nil, types.ErrChapterNotFound
	}

	maxWords := o.cfg.MaxWordsConvertAll
	if maxWords <= 0 {
		maxWords = 500000
	}
	if chapters.TotalWordCount(b.Chapters) > maxWords {
		return nil, &types.QuotaError{Reason: "book exceeds the whole-book conversion word budget", RequiresPremium: false}
	}

	jobsOut := make([]types.Job, 0, len(b.Chapters))
	for i := range b.Chapters {
		if existing, ok := o.existingChapterJob(bookID, i); ok {
			jobsOut = append(jobsOut, existing)
			continue
		}
		jobsOut = append(jobsOut, o.startChapterJob(bookID, i, userID, isPremium, b.Voice, b.Rate))
	}
	return jobsOut, nil
}

// existingChapterJob returns the in-flight or completed job already
// tracked for a chapter, if any.
func (o *Orchestrator) existingChapterJob(bookID string, chapterIndex int) (types.Job, bool) {
	o.lock()
	var existingID string
	if m, ok := o.chapterJobs[bookID]; ok {
		existingID, ok = m[chapterIndex]
		if !ok {
			o.unlock()
			return types.Job{}, false
		}
	} else {
		o.unlock()
		return types.Job{}, false
	}
	o.unlock()

	snap, ok := o.jobs.Snapshot(existingID)
	if !ok {
		return types.Job{}, false
	}
	if snap.Status == types.JobProcessing || snap.Status == types.JobCompleted {
		return snap, true
	}
	return types.Job{}, false
}

func (o *Orchestrator) startChapterJob(bookID string, chapterIndex int, userID string, isPremium bool, voice, rate string) types.Job {
	j := o.jobs.CreateChapterJob(userID, isPremium, bookID, chapterIndex)

	o.lock()
	if o.chapterJobs[bookID] == nil {
		o.chapterJobs[bookID] = make(map[int]string)
	}
	o.chapterJobs[bookID][chapterIndex] = j.ID
	o.unlock()

	_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, j.ID, types.JobProcessing)

	go o.runChapterWorker(context.Background(), bookID, chapterIndex, j.ID, voice, rate)
	return j
}

// runChapterWorker waits for a semaphore slot (polling for cancellation
// every SemaphoreWaitPoll while it waits), synthesizes the chapter, and
// records the outcome in both the Job Registry and the book's manifest.
func (o *Orchestrator) runChapterWorker(ctx context.Context, bookID string, chapterIndex int, jobID, voice, rate string) {
	if !o.acquireSemaphore(jobID) {
		o.jobs.MarkCancelled(jobID)
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobCancelled)
		return
	}
	defer func() { <-o.sem }()

	if o.jobs.IsCancelled(jobID) {
		o.jobs.MarkCancelled(jobID)
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobCancelled)
		return
	}

	text, err := o.packaging.ReadChapterText(ctx, bookID, chapterIndex)
	if err != nil {
		o.jobs.MarkError(jobID, err.Error())
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobError)
		return
	}

	outputPath := o.localPath(util.OutputPath(jobID, fmt.Sprintf("chapter_%02d", chapterIndex)))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		o.jobs.MarkError(jobID, err.Error())
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobError)
		return
	}

	providerInst, err := o.providers.DefaultTTS()
	if err != nil {
		o.jobs.MarkError(jobID, err.Error())
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobError)
		return
	}

	onProgress := func(percent float64, message string) error {
		if o.jobs.IsCancelled(jobID) {
			return types.ErrCancelled
		}
		o.jobs.SetProgress(jobID, percent, message)
		return nil
	}

	if err := tts.Stream(ctx, providerInst, text, voice, rate, outputPath, onProgress); err != nil {
		os.Remove(outputPath)
		if errors.Is(err, types.ErrCancelled) {
			o.jobs.MarkCancelled(jobID)
			_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobCancelled)
			return
		}
		o.jobs.MarkError(jobID, err.Error())
		_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobError)
		return
	}

	downloadName := fmt.Sprintf("chapter_%02d.mp3", chapterIndex)
	o.jobs.MarkCompleted(jobID, outputPath, downloadName)
	_ = o.packaging.UpdateManifestEntry(context.Background(), bookID, chapterIndex, jobID, types.JobCompleted)
}

// acquireSemaphore blocks until a chapter worker slot is free, checking for
// cancellation every poll interval while it waits. It returns false if the
// job was cancelled before a slot became available; the re-check right
// after acquiring is done by runChapterWorker.
func (o *Orchestrator) acquireSemaphore(jobID string) bool {
	poll := waitPoll(o.cfg)
	for {
		select {
		case o.sem <- struct{}{}:
			return true
		case <-time.After(poll):
			if o.jobs.IsCancelled(jobID) {
				return false
			}
		}
	}
}
