// Package config defines the application configuration structures and the
// loader that populates them from files and environment variables.
package config

import "time"

// Config holds all application configuration parameters, organized by
// functional area.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Video    VideoConfig    `mapstructure:"video"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the network port the server listens on.
	Port int `mapstructure:"port" validate:"required,gt=0,lt=65536"`

	// LogLevel controls logging verbosity: debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig holds authentication and encryption settings.
type AuthConfig struct {
	// JWTSecret signs and verifies access tokens. Minimum 32 characters.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// EncryptionKey encrypts stored provider API tokens at rest.
	// Must be exactly 32 bytes (AES-256).
	EncryptionKey string `mapstructure:"encryption_key" validate:"required,len=32"`

	// TokenLifetimeMinutes is the validity window of issued JWTs.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime returns the JWT validity window as a duration.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// LLMConfig holds settings for the AI analysis backend.
type LLMConfig struct {
	// GeminiAPIKey is the service-level key used when a caller has not
	// stored a token of their own.
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`

	// ModelName is the default Gemini model used for analysis.
	ModelName string `mapstructure:"model_name" validate:"required"`
}

// OCRConfig holds settings for the external OCR service.
type OCRConfig struct {
	// BaseURL is the root URL of the OCR service.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// TimeoutSeconds bounds each OCR request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// VideoConfig holds settings for the external video and transcription
// services used by link processing.
type VideoConfig struct {
	// ProcessorURL is the root URL of the video download/processing service.
	ProcessorURL string `mapstructure:"processor_url" validate:"required,url"`

	// WhisperURL is the root URL of the audio transcription service.
	WhisperURL string `mapstructure:"whisper_url" validate:"required,url"`

	// TimeoutSeconds bounds each video service request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// WorkerConfig holds settings for the background task runner.
type WorkerConfig struct {
	// Count is the number of concurrent workers. Bounded so a burst of
	// submissions cannot exhaust outbound service quotas.
	Count int `mapstructure:"count" validate:"required,gte=1,lte=32"`

	// QueueSize is the capacity of the pending task queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}
