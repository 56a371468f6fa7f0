// Package ocrclient is an HTTP client for the external OCR service that
// recognizes text in scanned documents and images.
package ocrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// Mode selects how the OCR service processes a document.
type Mode string

const (
	// ModeStructural performs plain text recognition.
	ModeStructural Mode = "structural"

	// ModeVision sends pages through the service's vision model, which
	// returns an analysis alongside or instead of raw text.
	ModeVision Mode = "vision"
)

// ErrNoText is returned when the service responds successfully but none of
// the response fields carry usable text.
var ErrNoText = errors.New("ocr response contains no text")

// Page is a single page in an OCR response.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Result is the OCR service response. Older deployments populate only some
// of these fields, so callers should go through ResolveText.
type Result struct {
	Text     string `json:"text"`
	Analysis string `json:"analysis"`
	Pages    []Page `json:"pages"`
}

// ResolveText returns the best available text from a result, checking the
// fields in a fixed order: full text, then analysis, then concatenated
// pages. Returns ErrNoText when all are empty.
func (r *Result) ResolveText() (string, error) {
	if t := strings.TrimSpace(r.Text); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(r.Analysis); t != "" {
		return t, nil
	}
	var parts []string
	for _, p := range r.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), nil
	}
	return "", ErrNoText
}

// Client calls the OCR service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OCR client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit uploads a document for recognition in the given mode. Language is
// an optional hint; empty means service default.
func (c *Client) Submit(ctx context.Context, filename string, data []byte, mode Mode, language string) (*Result, error) {
	log := logger.FromContext(ctx)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.WriteField("mode", string(mode)); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/process", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Debug("submitting document to ocr service", "filename", filename, "mode", mode, "bytes", len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ocr service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ocr response: %w", err)
	}
	return &result, nil
}

// RecognizeText submits the document in structural mode and resolves the
// response to plain text. This is the entry point used by the extraction
// pipeline.
func (c *Client) RecognizeText(ctx context.Context, filename string, data []byte, language string) (string, error) {
	result, err := c.Submit(ctx, filename, data, ModeStructural, language)
	if err != nil {
		return "", err
	}
	return result.ResolveText()
}
