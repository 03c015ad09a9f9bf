package provider

import (
	"fmt"
	"sync"

	"github.com/duskline/narrator/pkg/types"
)

// Registry manages TTS provider instances, keyed by name.
type Registry struct {
	ttsProviders map[string]TTSProvider
	mu           sync.RWMutex
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		ttsProviders: make(map[string]TTSProvider),
	}
}

// RegisterTTS registers a TTS provider.
func (r *Registry) RegisterTTS(provider TTSProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.ttsProviders[name]; exists {
		return fmt.Errorf("TTS provider already registered: %s", name)
	}

	r.ttsProviders[name] = provider
	return nil
}

// GetTTS retrieves a TTS provider by name.
func (r *Registry) GetTTS(name string) (TTSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.ttsProviders[name]
	if !exists {
		return nil, fmt.Errorf("TTS provider not found: %s", name)
	}

	return provider, nil
}

// DefaultTTS returns the sole registered TTS provider. The orchestrator
// synthesizes against whichever engine InitializeProviders wired up; a
// deployment that needs to choose between engines selects at config time,
// not per request.
func (r *Registry) DefaultTTS() (TTSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.ttsProviders {
		return p, nil
	}
	return nil, fmt.Errorf("no TTS provider registered")
}

// ListTTS returns all registered TTS provider names.
func (r *Registry) ListTTS() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ttsProviders))
	for name := range r.ttsProviders {
		names = append(names, name)
	}
	return names
}

// Close closes all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, provider := range r.ttsProviders {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close TTS provider %s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %v", errs)
	}
	return nil
}

// InitializeProviders creates the TTS provider instance from configuration.
func (r *Registry) InitializeProviders(cfg types.TTSConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("tts endpoint is required")
	}
	provider, err := NewHTTPTTSProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create TTS provider: %w", err)
	}
	return r.RegisterTTS(provider)
}
