// Package orchestrator wires the Chapter Analyzer, TTS Streamer, Job
// Registry, and Book Registry into the four conversion operations:
// convert_single, analyze, convert_chapter, and convert_all. It owns the
// capacity-bounded semaphore every chapter synthesis worker waits on and
// the opportunistic idle cleanup that runs ahead of each request.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/duskline/narrator/internal/book"
	"github.com/duskline/narrator/internal/job"
	"github.com/duskline/narrator/internal/packaging"
	"github.com/duskline/narrator/internal/provider"
	"github.com/duskline/narrator/internal/storage"
	"github.com/duskline/narrator/pkg/types"
)

// Orchestrator drives the whole conversion pipeline: document extraction,
// chapter analysis, and TTS synthesis, bounded by a system-wide chapter
// worker semaphore.
type Orchestrator struct {
	cfg       types.PipelineConfig
	root      string
	jobs      *job.Registry
	books     *book.Registry
	providers *provider.Registry
	packaging *packaging.Service
	storage   storage.Adapter

	sem chan struct{}

	mu          chan struct{} // binary mutex guarding chapterJobs; see lock/unlock helpers
	chapterJobs map[string]map[int]string
}

// New returns an Orchestrator rooted at the local filesystem directory the
// storage adapter also uses, so paths handed to pdfreader/epub/docx readers
// resolve to the same files the adapter wrote.
func New(cfg types.PipelineConfig, root string, jobs *job.Registry, books *book.Registry, providers *provider.Registry, pkgSvc *packaging.Service, storageAdapter storage.Adapter) *Orchestrator {
	concurrency := cfg.MaxConcurrentChapterWorkers
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Orchestrator{
		cfg:         cfg,
		root:        root,
		jobs:        jobs,
		books:       books,
		providers:   providers,
		packaging:   pkgSvc,
		storage:     storageAdapter,
		sem:         make(chan struct{}, concurrency),
		mu:          make(chan struct{}, 1),
		chapterJobs: make(map[string]map[int]string),
	}
}

func (o *Orchestrator) lock()   { o.mu <- struct{}{} }
func (o *Orchestrator) unlock() { <-o.mu }

// localPath resolves a storage-relative path (as produced by internal/util)
// to the real filesystem path the PDF/EPUB/DOCX readers need.
func (o *Orchestrator) localPath(relative string) string {
	return filepath.Join(o.root, relative)
}

func extOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

var allowedExtensions = map[string]bool{"pdf": true, "epub": true, "docx": true}

// ValidateUpload enforces the extension allow-list and max upload size at
// submission time, before any job or book record is created.
func (o *Orchestrator) ValidateUpload(filename string, size int64) (string, error) {
	ext := extOf(filename)
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFileType, ext)
	}
	maxBytes := o.cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}
	if size > maxBytes {
		return "", &types.QuotaError{Reason: "upload exceeds maximum size", RequiresPremium: false}
	}
	return ext, nil
}

// cleanupIdle opportunistically evicts upload/output files and book/job
// records older than the configured cleanup age. It runs synchronously but
// cheaply: a storage list-and-stat pass, no large reads.
func (o *Orchestrator) cleanupIdle(ctx context.Context) {
	if o.cfg.CleanupAge <= 0 {
		return
	}
	o.sweepPrefix(ctx, "uploads")
	o.sweepPrefix(ctx, "output")
	o.books.SweepOlderThan(o.cfg.CleanupAge)
	o.jobs.Sweep(o.cfg.CleanupAge)
}

func (o *Orchestrator) sweepPrefix(ctx context.Context, prefix string) {
	cutoff := time.Now().Add(-o.cfg.CleanupAge).Unix()
	paths, err := o.storage.List(ctx, prefix)
	if err != nil {
		return
	}
	for _, p := range paths {
		meta, err := o.storage.Stat(ctx, p)
		if err != nil {
			continue
		}
		if meta.LastModified < cutoff {
			_ = o.storage.Delete(ctx, p)
		}
	}
}

func waitPoll(cfg types.PipelineConfig) time.Duration {
	if cfg.SemaphoreWaitPoll <= 0 {
		return 500 * time.Millisecond
	}
	return cfg.SemaphoreWaitPoll
}
