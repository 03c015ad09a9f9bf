package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/duskline/narrator/pkg/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file.
// It also supports environment variable overrides with an NRR_ prefix.
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := *GetDefault()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid, filling in any still-zero
// defaults that are safe to assume rather than reject.
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Storage.Adapter == "local" {
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	}

	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	if cfg.Pipeline.MaxConcurrentChapterWorkers <= 0 {
		cfg.Pipeline.MaxConcurrentChapterWorkers = 3
	}
	if cfg.Pipeline.FreeTierPageCap <= 0 {
		cfg.Pipeline.FreeTierPageCap = 50
	}
	if cfg.Pipeline.MaxUploadBytes <= 0 {
		cfg.Pipeline.MaxUploadBytes = 50 << 20
	}
	if cfg.Pipeline.MaxChaptersPerBook <= 0 {
		cfg.Pipeline.MaxChaptersPerBook = 60
	}
	if cfg.Pipeline.MaxWordsConvertAll <= 0 {
		cfg.Pipeline.MaxWordsConvertAll = 500_000
	}
	if cfg.Pipeline.SemaphoreWaitPoll <= 0 {
		cfg.Pipeline.SemaphoreWaitPoll = 500 * time.Millisecond
	}
	if cfg.Pipeline.ProgressPollInterval <= 0 {
		cfg.Pipeline.ProgressPollInterval = 500 * time.Millisecond
	}
	if cfg.Pipeline.CleanupAge <= 0 {
		cfg.Pipeline.CleanupAge = 24 * time.Hour
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables should be prefixed with NRR_ (narrator).
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv("NRR_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("NRR_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	if val := os.Getenv("NRR_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("NRR_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("NRR_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("NRR_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("NRR_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("NRR_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("NRR_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	if val := os.Getenv("NRR_TTS_ENDPOINT"); val != "" {
		cfg.TTS.Endpoint = val
	}
	if val := os.Getenv("NRR_TTS_API_KEY"); val != "" {
		cfg.TTS.APIKey = val
	}
}

// GetDefault returns a default configuration.
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 30,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/narrator/storage",
			},
		},
		TTS: types.TTSConfig{
			DefaultVoice: "en-US-AriaNeural",
			DefaultRate:  "+0%",
		},
		Pipeline: types.PipelineConfig{
			MaxConcurrentChapterWorkers: 3,
			FreeTierPageCap:             50,
			MaxUploadBytes:              50 << 20,
			MaxChaptersPerBook:          60,
			MaxWordsConvertAll:          500_000,
			SemaphoreWaitPoll:           500 * time.Millisecond,
			ProgressPollInterval:        500 * time.Millisecond,
			CleanupAge:                  24 * time.Hour,
		},
	}
}
