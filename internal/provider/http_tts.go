package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/duskline/narrator/pkg/types"
)

// chunkSize is the read granularity applied to the streamed HTTP response
// body. One typical 4 KiB OS page, small enough that the progress callback fires often
// enough to keep cancellation latency bounded to roughly one chunk.
const chunkSize = 4096

// HTTPTTSProvider calls an OpenAI-compatible /audio/speech endpoint and
// streams the response body back as AudioChunks instead of buffering the
// whole segment, so the TTS Streamer can append to its output file and
// report progress as bytes arrive.
type HTTPTTSProvider struct {
	name       string
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPTTSProvider builds a provider from the TTS engine configuration.
func NewHTTPTTSProvider(cfg types.TTSConfig) (*HTTPTTSProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tts endpoint is required")
	}
	return &HTTPTTSProvider{
		name:     "http",
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Name returns the provider's registry name.
func (p *HTTPTTSProvider) Name() string {
	return p.name
}

// Synthesize posts one segment of text to the TTS engine and streams the
// response body back over the returned channel. The channel is closed
// when the body is exhausted or an error occurs; a chunk carrying a
// non-nil Err is always the last value sent.
func (p *HTTPTTSProvider) Synthesize(ctx context.Context, req SynthesizeRequest) (<-chan AudioChunk, error) {
	body, err := json.Marshal(speechRequest{
		Input: req.Text,
		Voice: req.VoiceID,
		Speed: req.Rate,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	log.Printf("[TTS-%s] POST %s (input_length=%d)", p.name, httpReq.URL.String(), len(req.Text))

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tts request failed with status %d: %s", resp.StatusCode, string(payload))
	}

	out := make(chan AudioChunk)
	go p.stream(ctx, resp.Body, out)
	return out, nil
}

func (p *HTTPTTSProvider) stream(ctx context.Context, body io.ReadCloser, out chan<- AudioChunk) {
	defer close(out)
	defer body.Close()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case out <- AudioChunk{Data: data}:
			case <-ctx.Done():
				out <- AudioChunk{Err: ctx.Err()}
				return
			}
		}
		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			log.Printf("[TTS-%s] stream read failed: %v", p.name, readErr)
			out <- AudioChunk{Err: fmt.Errorf("%w: %v", types.ErrTTSFailure, readErr)}
			return
		}
	}
}

// Close releases idle HTTP connections.
func (p *HTTPTTSProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

type speechRequest struct {
	Input string `json:"input"`
	Voice string `json:"voice"`
	Speed string `json:"speed,omitempty"`
}
