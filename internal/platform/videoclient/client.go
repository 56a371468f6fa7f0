// Package videoclient holds HTTP clients for the external video processing
// service (metadata and audio download) and the transcription service.
package videoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// maxAudioBytes caps downloaded audio to keep a single task from holding
// unbounded memory.
const maxAudioBytes = 256 << 20

// Metadata describes a video as reported by the processing service.
type Metadata struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
}

// Client calls the video processing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a video client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthy probes the service health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// FetchMetadata asks the service for the video's title, description, and
// duration.
func (c *Client) FetchMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/video/info", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video service returned status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode video info: %w", err)
	}

	log.Debug("fetched video metadata", "title", meta.Title, "duration", meta.Duration)
	return &meta, nil
}

// DownloadAudio asks the service to extract the video's audio track and
// returns the raw bytes.
func (c *Client) DownloadAudio(ctx context.Context, videoURL string) ([]byte, error) {
	endpoint := c.baseURL + "/api/video/audio?url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, fmt.Errorf("audio exceeds %d byte limit", maxAudioBytes)
	}
	return data, nil
}

// TranscriptionClient calls the audio transcription service.
type TranscriptionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranscriptionClient creates a transcription client for the service at
// baseURL.
func NewTranscriptionClient(baseURL string, timeout time.Duration) *TranscriptionClient {
	return &TranscriptionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthy probes the service health endpoint.
func (c *TranscriptionClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// TranscribeOptions are optional hints forwarded to the transcription
// service. The title and description give the model context words it would
// otherwise mishear, proper nouns especially.
type TranscribeOptions struct {
	Language        string
	TitleHint       string
	DescriptionHint string
}

// Transcribe uploads an audio track and returns the transcript text. All
// hints are optional; an empty language lets the service detect it.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "audio.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	fields := map[string]string{
		"language":         opts.Language,
		"title_hint":       opts.TitleHint,
		"description_hint": opts.DescriptionHint,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcript: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
