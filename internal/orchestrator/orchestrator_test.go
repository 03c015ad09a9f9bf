package orchestrator

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duskline/narrator/internal/book"
	"github.com/duskline/narrator/internal/job"
	"github.com/duskline/narrator/internal/packaging"
	"github.com/duskline/narrator/internal/provider"
	"github.com/duskline/narrator/internal/storage"
	"github.com/duskline/narrator/pkg/types"
)

// slowFakeProvider holds every concurrent Synthesize call open until
// released, so tests can observe exactly how many chapter workers run at
// once against the orchestrator's semaphore.
type slowFakeProvider struct {
	mu      sync.Mutex
	active  int
	peak    int
	release chan struct{}
}

func newSlowFakeProvider() *slowFakeProvider {
	return &slowFakeProvider{release: make(chan struct{})}
}

func (p *slowFakeProvider) Name() string { return "slow" }

func (p *slowFakeProvider) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (<-chan provider.AudioChunk, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.mu.Unlock()

	ch := make(chan provider.AudioChunk, 1)
	go func() {
		defer close(ch)
		<-p.release
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		ch <- provider.AudioChunk{Data: []byte("audio")}
	}()
	return ch, nil
}

func (p *slowFakeProvider) Close() error { return nil }

type instantFakeProvider struct{ calls int32 }

func (p *instantFakeProvider) Name() string { return "instant" }

func (p *instantFakeProvider) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (<-chan provider.AudioChunk, error) {
	atomic.AddInt32(&p.calls, 1)
	ch := make(chan provider.AudioChunk, 1)
	ch <- provider.AudioChunk{Data: []byte("audio-bytes")}
	close(ch)
	return ch, nil
}

func (p *instantFakeProvider) Close() error { return nil }

func newTestOrchestrator(t *testing.T, tts provider.TTSProvider) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	adapter, err := storage.NewLocalAdapter(root)
	if err != nil {
		t.Fatalf("NewLocalAdapter: %v", err)
	}
	providers := provider.NewRegistry()
	if err := providers.RegisterTTS(tts); err != nil {
		t.Fatalf("RegisterTTS: %v", err)
	}
	cfg := types.PipelineConfig{
		MaxConcurrentChapterWorkers: 3,
		FreeTierPageCap:             50,
		MaxWordsConvertAll:          500000,
		SemaphoreWaitPoll:           20 * time.Millisecond,
	}
	o := New(cfg, root, job.NewRegistry(), book.NewRegistry(), providers, packaging.NewService(adapter), adapter)
	return o, root
}

func waitForTerminal(t *testing.T, o *Orchestrator, jobID string, timeout time.Duration) types.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap, ok := o.jobs.Snapshot(jobID)
		if ok && snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return types.Job{}
}

func seedBook(t *testing.T, o *Orchestrator, n int) types.Book {
	t.Helper()
	chapters := make([]types.Chapter, n)
	for i := range chapters {
		chapters[i] = types.Chapter{
			Index:     i,
			Title:     fmt.Sprintf("Chapter %d", i+1),
			WordCount: 100,
			Text:      fmt.Sprintf("chapter %d body text", i+1),
			TextClean: fmt.Sprintf("chapter %d body text", i+1),
		}
	}
	b := o.books.Create(types.Book{UserID: "user-1", Filename: "book.pdf", Voice: "v1", Rate: "+0%"})
	if err := o.packaging.WriteChapterCache(context.Background(), b.ID, "book.pdf", "toc", chapters); err != nil {
		t.Fatalf("WriteChapterCache: %v", err)
	}
	o.books.SetChapters(b.ID, chapters, "toc")
	b.Chapters = chapters
	return b
}

func TestConvertAllNeverExceedsSemaphoreCapacity(t *testing.T) {
	p := newSlowFakeProvider()
	o, _ := newTestOrchestrator(t, p)
	b := seedBook(t, o, 8)

	jobs, err := o.ConvertAll(context.Background(), b.ID, "user-1", true)
	if err != nil {
		t.Fatalf("ConvertAll: %v", err)
	}
	if len(jobs) != 8 {
		t.Fatalf("got %d jobs, want 8", len(jobs))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		p.mu.Lock()
		active := p.active
		p.mu.Unlock()
		if active == 3 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.mu.Lock()
	peak := p.peak
	p.mu.Unlock()
	if peak > 3 {
		t.Fatalf("peak concurrent synthesis calls = %d, want <= 3", peak)
	}

	close(p.release)
	for _, j := range jobs {
		final := waitForTerminal(t, o, j.ID, 2*time.Second)
		if final.Status != types.JobCompleted {
			t.Errorf("job %s ended in %s, want completed", j.ID, final.Status)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.peak > 3 {
		t.Errorf("peak concurrent synthesis calls = %d, want <= 3", p.peak)
	}
}

func TestConvertChapterReturnsExistingJobForDuplicateRequest(t *testing.T) {
	p := newSlowFakeProvider()
	defer close(p.release)
	o, _ := newTestOrchestrator(t, p)
	b := seedBook(t, o, 2)

	j1, err := o.ConvertChapter(context.Background(), b.ID, 0, "user-1", true)
	if err != nil {
		t.Fatalf("ConvertChapter: %v", err)
	}
	j2, err := o.ConvertChapter(context.Background(), b.ID, 0, "user-1", true)
	if err != nil {
		t.Fatalf("ConvertChapter (dup): %v", err)
	}
	if j1.ID != j2.ID {
		t.Errorf("duplicate chapter request started a new job: %s vs %s", j1.ID, j2.ID)
	}
}

func TestConvertChapterRejectsFreeTier(t *testing.T) {
	p := &instantFakeProvider{}
	o, _ := newTestOrchestrator(t, p)
	b := seedBook(t, o, 1)

	_, err := o.ConvertChapter(context.Background(), b.ID, 0, "user-1", false)
	var quotaErr *types.QuotaError
	if err == nil {
		t.Fatalf("expected quota error for free-tier chapter conversion")
	}
	if !asQuotaError(err, &quotaErr) || !quotaErr.RequiresPremium {
		t.Errorf("expected RequiresPremium quota error, got %v", err)
	}
}

func TestConvertChapterOutOfRange(t *testing.T) {
	p := &instantFakeProvider{}
	o, _ := newTestOrchestrator(t, p)
	b := seedBook(t, o, 2)

	_, err := o.ConvertChapter(context.Background(), b.ID, 5, "user-1", true)
	if err != types.ErrChapterNotFound {
		t.Errorf("ConvertChapter(out of range) = %v, want ErrChapterNotFound", err)
	}
}

func TestConvertChapterRejectsWrongOwner(t *testing.T) {
	p := &instantFakeProvider{}
	o, _ := newTestOrchestrator(t, p)
	b := seedBook(t, o, 1)

	_, err := o.ConvertChapter(context.Background(), b.ID, 0, "someone-else", true)
	if err != types.ErrUnauthorized {
		t.Errorf("ConvertChapter(wrong owner) = %v, want ErrUnauthorized", err)
	}
}

func TestConvertAllRefusesOverWordBudget(t *testing.T) {
	p := &instantFakeProvider{}
	o, _ := newTestOrchestrator(t, p)
	o.cfg.MaxWordsConvertAll = 50

	b := seedBook(t, o, 2) // 100 words each, 200 total > 50

	_, err := o.ConvertAll(context.Background(), b.ID, "user-1", true)
	var quotaErr *types.QuotaError
	if !asQuotaError(err, &quotaErr) {
		t.Fatalf("ConvertAll over budget = %v, want quota error", err)
	}
}

func TestConvertSingleCompletesAndCleansUpload(t *testing.T) {
	p := &instantFakeProvider{}
	o, root := newTestOrchestrator(t, p)

	uploadPath := filepath.Join(root, "uploads", "job-x.docx")
	os.MkdirAll(filepath.Dir(uploadPath), 0755)
	writeSampleDocxAt(t, uploadPath)

	j, err := o.ConvertSingle(context.Background(), uploadPath, "mybook.docx", "v1", "+0%", "user-1", false)
	if err != nil {
		t.Fatalf("ConvertSingle: %v", err)
	}

	final := waitForTerminal(t, o, j.ID, 2*time.Second)
	if final.Status != types.JobCompleted {
		t.Fatalf("ConvertSingle job ended in %s: %s", final.Status, final.Message)
	}
	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Errorf("upload file was not cleaned up after conversion")
	}
	if _, err := os.Stat(final.OutputFile); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph of the narration.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeSampleDocxAt(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(sampleDocumentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

func asQuotaError(err error, target **types.QuotaError) bool {
	qe, ok := err.(*types.QuotaError)
	if ok {
		*target = qe
	}
	return ok
}
