package tts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskline/narrator/internal/provider"
	"github.com/duskline/narrator/internal/textnorm"
)

type fakeProvider struct {
	chunksPerCall [][]byte
	calls         int
	failOn        int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (<-chan provider.AudioChunk, error) {
	idx := f.calls
	f.calls++
	ch := make(chan provider.AudioChunk, 4)
	go func() {
		defer close(ch)
		if f.failOn == idx {
			ch <- provider.AudioChunk{Err: context.DeadlineExceeded}
			return
		}
		var data []byte
		if idx < len(f.chunksPerCall) {
			data = f.chunksPerCall[idx]
		} else {
			data = []byte("audio")
		}
		ch <- provider.AudioChunk{Data: data}
	}()
	return ch, nil
}

func (f *fakeProvider) Close() error { return nil }

func TestStreamSplicesSilenceBetweenParagraphs(t *testing.T) {
	p := &fakeProvider{chunksPerCall: [][]byte{[]byte("AAAA"), []byte("BBBB")}, failOn: -1}
	text := "first paragraph" + textnorm.Sentinel + "second paragraph"
	out := filepath.Join(t.TempDir(), "out.mp3")

	if err := Stream(context.Background(), p, text, "voice-1", "+0%", out, nil); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Contains(data, []byte("AAAA")) || !bytes.Contains(data, []byte("BBBB")) {
		t.Fatalf("output missing synthesized audio: %x", data)
	}
	want := silenceFrameCount * len(silentFrame)
	if bytes.Count(data, silentFrame) < 1 {
		t.Fatalf("silent frame not found in output")
	}
	if len(data) != len("AAAA")+len("BBBB")+want {
		t.Errorf("output length = %d, want %d", len(data), len("AAAA")+len("BBBB")+want)
	}
}

func TestStreamReportsProgress(t *testing.T) {
	p := &fakeProvider{chunksPerCall: [][]byte{[]byte("012345678901234567890123456789")}, failOn: -1}
	out := filepath.Join(t.TempDir(), "out.mp3")

	var percents []float64
	err := Stream(context.Background(), p, "only paragraph", "v", "+0%", out, func(percent float64, msg string) error {
		percents = append(percents, percent)
		if msg != "Converting to speech..." {
			t.Errorf("unexpected message %q", msg)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(percents) == 0 {
		t.Fatalf("no progress reported")
	}
	for _, pct := range percents {
		if pct < 20 || pct > 95 {
			t.Errorf("percent %v outside [20,95]", pct)
		}
	}
}

func TestStreamPropagatesCancellation(t *testing.T) {
	p := &fakeProvider{chunksPerCall: [][]byte{[]byte("aaaa")}, failOn: -1}
	out := filepath.Join(t.TempDir(), "out.mp3")

	cancelled := errCancelledSentinel
	err := Stream(context.Background(), p, "text", "v", "+0%", out, func(percent float64, msg string) error {
		return cancelled
	})
	if err != cancelled {
		t.Fatalf("Stream error = %v, want cancellation sentinel", err)
	}
}

func TestStreamSynthesisFailure(t *testing.T) {
	p := &fakeProvider{failOn: 0}
	out := filepath.Join(t.TempDir(), "out.mp3")

	err := Stream(context.Background(), p, "text", "v", "+0%", out, nil)
	if err == nil {
		t.Fatalf("expected synthesis failure")
	}
}

func TestStreamEmptyTextAfterSplitting(t *testing.T) {
	p := &fakeProvider{}
	out := filepath.Join(t.TempDir(), "out.mp3")

	err := Stream(context.Background(), p, "   "+textnorm.Sentinel+"  ", "v", "+0%", out, nil)
	if err == nil {
		t.Fatalf("expected error for all-blank segments")
	}
}

var errCancelledSentinel = testCancelError{}

type testCancelError struct{}

func (testCancelError) Error() string { return "cancelled" }
