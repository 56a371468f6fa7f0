package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/extract"
	"github.com/lumenlabs/lumen-api/internal/platform/videoclient"
	"github.com/lumenlabs/lumen-api/internal/task"
)

// Interfaces for the collaborators the service layer depends on, defined
// here on the consumer side so tests can substitute fakes.

// ExtractionPipeline converts uploaded bytes into plain text.
type ExtractionPipeline interface {
	Extract(ctx context.Context, filename string, data []byte, opts extract.Options) (extract.Result, error)
}

// Analyzer runs AI analysis over extracted text and vision extraction over
// raw document bytes.
type Analyzer interface {
	Analyze(ctx context.Context, text, language, model string) (string, error)
	AnalyzeWithPrompt(ctx context.Context, prompt, text, model string) (string, error)
	ExtractWithVision(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Summarizer condenses webpage or transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SummarizerFactory builds a Summarizer for a given provider and API key.
// Providers are "openai" and "gemini".
type SummarizerFactory func(ctx context.Context, provider, apiKey string) (Summarizer, error)

// CredentialSource resolves a user's stored AI provider tokens to plaintext.
// Implementations return ErrTokenNotFound when the user has no token for
// the provider.
type CredentialSource interface {
	DecryptedToken(ctx context.Context, userID uuid.UUID, provider string) (string, error)
}

// WebScraper probes and scrapes webpages. PageTitle never fails; it
// returns the linkmeta sentinel when no title can be read.
type WebScraper interface {
	IsAccessible(ctx context.Context, url string) bool
	PageTitle(ctx context.Context, url string) string
	PageText(ctx context.Context, url string) (string, error)
}

// VideoProcessor fetches video metadata and audio.
type VideoProcessor interface {
	FetchMetadata(ctx context.Context, url string) (*videoclient.Metadata, error)
	DownloadAudio(ctx context.Context, url string) ([]byte, error)
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, opts videoclient.TranscribeOptions) (string, error)
}

// TaskSubmitter is the slice of the task runner the service uses.
type TaskSubmitter interface {
	Submit(t task.Task) error
}
