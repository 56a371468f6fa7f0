// Package gemini wraps the Google Gemini API for document analysis,
// content summarization, and vision-based text extraction.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// Client errors.
var (
	// ErrEmptyResponse is returned when the model replies with no usable text.
	ErrEmptyResponse = errors.New("model returned empty response")

	// ErrEmptyInput is returned when there is nothing to send to the model.
	ErrEmptyInput = errors.New("no input text provided")
)

// maxInputChars bounds prompt size so oversized documents are truncated
// instead of rejected by the API.
const maxInputChars = 200_000

// defaultTemperature keeps analysis output stable across runs.
const defaultTemperature float32 = 0.2

// Client calls the Gemini API with a fixed default model.
type Client struct {
	genaiClient *genai.Client
	model       string
}

// NewClient creates a Gemini client with the given API key and default
// model name.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		return nil, errors.New("gemini model name is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{genaiClient: genaiClient, model: model}, nil
}

// Analyze runs the language-appropriate analysis prompt over extracted
// document text. The model parameter overrides the default model when
// non-empty.
func (c *Client) Analyze(ctx context.Context, text, language, model string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	prompt := analysisPrompt(language) + "\n\n" + truncate(text)
	return c.generate(ctx, prompt, model)
}

// AnalyzeWithPrompt runs a caller-supplied prompt over the text instead of
// the built-in analysis prompts.
func (c *Client) AnalyzeWithPrompt(ctx context.Context, prompt, text, model string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	text = strings.TrimSpace(text)
	if prompt == "" || text == "" {
		return "", ErrEmptyInput
	}
	return c.generate(ctx, prompt+"\n\n"+truncate(text), model)
}

// Summarize condenses webpage or transcript text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	prompt := summaryPrompt + "\n\n" + truncate(text)
	return c.generate(ctx, prompt, "")
}

// ExtractWithVision sends document bytes to the model's vision path and
// returns the transcribed text. Any failure is returned as-is; vision
// extraction has no fallback.
func (c *Client) ExtractWithVision(ctx context.Context, data []byte, mimeType string) (string, error) {
	log := logger.FromContext(ctx)

	if len(data) == 0 {
		return "", ErrEmptyInput
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(visionPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	log.Debug("calling gemini vision", "model", c.model, "mime_type", mimeType, "bytes", len(data))

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("vision extraction failed: %w", err)
	}
	return responseText(resp)
}

func (c *Client) generate(ctx context.Context, prompt, model string) (string, error) {
	log := logger.FromContext(ctx)

	if model == "" {
		model = c.model
	}

	log.Debug("calling gemini", "model", model, "prompt_chars", len(prompt))

	resp, err := c.genaiClient.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func truncate(text string) string {
	if len(text) > maxInputChars {
		return text[:maxInputChars]
	}
	return text
}
