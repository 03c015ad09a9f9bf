package types

import "time"

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	TTS      TTSConfig      `yaml:"tts" json:"tts"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port"`
	ReadTimeout     int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout    int    `yaml:"write_timeout" json:"write_timeout"` // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// StorageConfig defines storage adapter settings.
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter.
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter.
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// TTSConfig configures the external TTS engine collaborator.
type TTSConfig struct {
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	APIKey       string `yaml:"api_key" json:"api_key"`
	DefaultVoice string `yaml:"default_voice" json:"default_voice"`
	DefaultRate  string `yaml:"default_rate" json:"default_rate"`
}

// PipelineConfig holds orchestrator-level limits and knobs.
type PipelineConfig struct {
	MaxConcurrentChapterWorkers int           `yaml:"max_concurrent_chapter_workers" json:"max_concurrent_chapter_workers"`
	FreeTierPageCap             int           `yaml:"free_tier_page_cap" json:"free_tier_page_cap"`
	MaxUploadBytes              int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	MaxChaptersPerBook          int           `yaml:"max_chapters_per_book" json:"max_chapters_per_book"`
	MaxWordsConvertAll          int           `yaml:"max_words_convert_all" json:"max_words_convert_all"`
	SemaphoreWaitPoll           time.Duration `yaml:"semaphore_wait_poll" json:"semaphore_wait_poll"`
	ProgressPollInterval        time.Duration `yaml:"progress_poll_interval" json:"progress_poll_interval"`
	CleanupAge                  time.Duration `yaml:"cleanup_age" json:"cleanup_age"`
}
