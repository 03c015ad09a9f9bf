// Package tts implements the TTS Streamer: it turns cleaned narration text
// into an MP3 file by streaming synthesized audio per paragraph from a
// provider.TTSProvider and splicing a fixed silent-frame block between
// paragraphs so the forced pause from the Text Normalizer survives into
// the audio.
package tts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/duskline/narrator/internal/provider"
	"github.com/duskline/narrator/internal/textnorm"
	"github.com/duskline/narrator/pkg/types"
)

// silentFrame is a single 192-byte MPEG2 Layer-3 frame of silence at 24kHz
// / 64kbps mono, matching the synthesis engine's stream parameters so
// concatenation produces a valid MP3.
var silentFrame = buildSilentFrame()

func buildSilentFrame() []byte {
	f := make([]byte, 192)
	f[0], f[1], f[2], f[3] = 0xFF, 0xF3, 0x64, 0xC4
	return f
}

// silenceFrameCount copies of silentFrame produce roughly 1.5s of silence.
const silenceFrameCount = 63

// ProgressFunc reports synthesis progress to the caller. It returns
// types.ErrCancelled when the underlying job has been cancelled, in which
// case Stream aborts and the caller deletes the partial output file.
type ProgressFunc func(percent float64, message string) error

// Stream synthesizes cleanedText (which may contain textnorm.Sentinel
// markers) to outputPath as a single MP3, reporting progress as bytes
// arrive. cleanedText is expected to already be textnorm-cleaned; Stream
// only splits on the sentinel and trims each segment.
func Stream(ctx context.Context, p provider.TTSProvider, cleanedText, voiceID, rate, outputPath string, onProgress ProgressFunc) error {
	segments := splitSegments(cleanedText)
	if len(segments) == 0 {
		return fmt.Errorf("%w: no narration text after splitting", types.ErrExtractedTextEmpty)
	}

	estimate := estimateOutputBytes(cleanedText)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	var written int64
	report := func(message string) error {
		if onProgress == nil {
			return nil
		}
		percent := 20 + minFloat(float64(written)/float64(estimate), 1.0)*75
		return onProgress(percent, message)
	}

	for i, segment := range segments {
		chunks, err := p.Synthesize(ctx, provider.SynthesizeRequest{Text: segment, VoiceID: voiceID, Rate: rate})
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrTTSFailure, err)
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				return fmt.Errorf("%w: %v", types.ErrTTSFailure, chunk.Err)
			}
			if _, err := out.Write(chunk.Data); err != nil {
				return fmt.Errorf("write audio chunk: %w", err)
			}
			written += int64(len(chunk.Data))

			if err := report("Converting to speech..."); err != nil {
				return err
			}
		}

		if i < len(segments)-1 {
			if err := writeSilence(out); err != nil {
				return fmt.Errorf("write silence block: %w", err)
			}
		}
	}

	return nil
}

// writeSilence appends the fixed 63-frame silent block used to separate
// paragraphs in the output audio.
func writeSilence(out *os.File) error {
	for i := 0; i < silenceFrameCount; i++ {
		if _, err := out.Write(silentFrame); err != nil {
			return err
		}
	}
	return nil
}

// splitSegments splits cleanedText on the narration-pause sentinel,
// trimming and dropping empty segments.
func splitSegments(cleanedText string) []string {
	parts := strings.Split(cleanedText, textnorm.Sentinel)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// estimateOutputBytes seeds the progress denominator. Never zero, so a
// degenerate tiny segment can't divide by zero.
func estimateOutputBytes(text string) int64 {
	estimate := int64(len(text)) * 150
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
