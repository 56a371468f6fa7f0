package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/extract"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// documentResult is the payload stored on a completed document task.
type documentResult struct {
	ExtractedText string   `json:"extracted_text"`
	Analysis      string   `json:"analysis,omitempty"`
	Method        string   `json:"method"`
	Language      string   `json:"language,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// documentJob processes one uploaded document in the background. It owns
// every status transition of its task, so whatever happens inside Execute
// the task always ends in a terminal state.
type documentJob struct {
	service  *TaskService
	taskID   uuid.UUID
	filename string
	data     []byte
	opts     DocumentOptions
}

func (j *documentJob) ID() uuid.UUID { return j.taskID }
func (j *documentJob) Kind() string  { return "document" }

func (j *documentJob) Execute(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := j.service.tasks.MarkProcessing(ctx, j.taskID); err != nil {
		return fmt.Errorf("failed to mark task processing: %w", err)
	}

	// Backstop: a panic below must still leave the task FAILED.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("document processing panicked", "panic", fmt.Sprintf("%v", rec))
			j.fail(ctx, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	result, err := j.process(ctx)
	if err != nil {
		log.Warn("document processing failed", "error", err)
		j.fail(ctx, err.Error())
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		j.fail(ctx, "failed to encode result")
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := j.service.tasks.Complete(ctx, j.taskID, store.TaskOutcome{Result: payload}); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Info("document task completed", "task_id", j.taskID, "method", result.Method)
	return nil
}

// process runs the selected extraction strategy and then analysis. Vision
// OCR is exclusive: it replaces both extraction and fallback handling.
func (j *documentJob) process(ctx context.Context) (*documentResult, error) {
	if j.opts.UseVisionOCR {
		return j.processVision(ctx)
	}

	extracted, err := j.service.pipeline.Extract(ctx, j.filename, j.data, extract.Options{
		ForceOCR:        j.opts.ForceOCR,
		SkipOCRFallback: j.opts.SkipOCRFallback,
		Language:        j.opts.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	result := &documentResult{
		ExtractedText: extracted.Text,
		Method:        string(extracted.Method),
		Language:      j.opts.Language,
		Warnings:      extracted.Warnings,
	}
	return j.withAnalysis(ctx, result)
}

// processVision sends the raw file to the vision model. There is no
// fallback: a vision transport failure fails the task. A model that reads
// the file but finds no text degrades to a warning, same as an OCR backend
// that comes back empty.
func (j *documentJob) processVision(ctx context.Context) (*documentResult, error) {
	result := &documentResult{Method: "vision", Language: j.opts.Language}

	text, err := j.service.analyzer.ExtractWithVision(ctx, j.data, mimeTypeFor(j.filename))
	if err != nil {
		if !isEmptyModelResponse(err) {
			return nil, fmt.Errorf("vision extraction failed: %w", err)
		}
		result.Warnings = append(result.Warnings, "vision extraction returned no text")
		return result, nil
	}

	result.ExtractedText = text
	return j.withAnalysis(ctx, result)
}

// withAnalysis runs the analysis stage over the extracted text when enabled.
// Without text the stage is skipped with a warning instead of re-attempting
// extraction, so no backend is called twice for one submission. An empty
// model response is a warning too; only transport and auth failures fail
// the task.
func (j *documentJob) withAnalysis(ctx context.Context, result *documentResult) (*documentResult, error) {
	if j.opts.SkipAnalysis {
		return result, nil
	}
	if strings.TrimSpace(result.ExtractedText) == "" {
		result.Warnings = append(result.Warnings, "no text extracted, analysis skipped")
		return result, nil
	}

	var (
		analysis string
		err      error
	)
	if j.opts.CustomPrompt != "" {
		analysis, err = j.service.analyzer.AnalyzeWithPrompt(ctx, j.opts.CustomPrompt, result.ExtractedText, j.opts.Model)
	} else {
		analysis, err = j.service.analyzer.Analyze(ctx, result.ExtractedText, j.opts.Language, j.opts.Model)
	}
	if err != nil {
		if isEmptyModelResponse(err) {
			logger.FromContext(ctx).Warn("analysis returned empty response", "task_id", j.taskID)
			result.Warnings = append(result.Warnings, "analysis returned no usable response")
			return result, nil
		}
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	result.Analysis = analysis
	return result, nil
}

func (j *documentJob) fail(ctx context.Context, message string) {
	if err := j.service.tasks.Fail(ctx, j.taskID, message); err != nil {
		logger.FromContext(ctx).Error("failed to mark task failed", "task_id", j.taskID, "error", err)
	}
}

// mimeTypeFor maps a filename extension to the MIME type sent to the
// vision model.
func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
