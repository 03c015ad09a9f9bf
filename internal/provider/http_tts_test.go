package provider

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duskline/narrator/pkg/types"
)

func TestHTTPTTSProviderStreamsChunks(t *testing.T) {
	audio := bytes.Repeat([]byte{0xFF}, chunkSize*2+17)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer auth header")
		}
		w.WriteHeader(http.StatusOK)
		w.Write(audio)
	}))
	defer srv.Close()

	p, err := NewHTTPTTSProvider(types.TTSConfig{Endpoint: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewHTTPTTSProvider: %v", err)
	}
	defer p.Close()

	chunks, err := p.Synthesize(context.Background(), SynthesizeRequest{Text: "hello", VoiceID: "v1", Rate: "+0%"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	var got []byte
	for c := range chunks {
		if c.Err != nil {
			t.Fatalf("chunk error: %v", c.Err)
		}
		got = append(got, c.Data...)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("got %d bytes, want %d", len(got), len(audio))
	}
}

func TestHTTPTTSProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	p, err := NewHTTPTTSProvider(types.TTSConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPTTSProvider: %v", err)
	}
	defer p.Close()

	_, err = p.Synthesize(context.Background(), SynthesizeRequest{Text: "hello", VoiceID: "v1"})
	if err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestNewHTTPTTSProviderRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPTTSProvider(types.TTSConfig{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
