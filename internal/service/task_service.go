// Package service implements the application's use cases: task submission
// and lifecycle, document and link processing, and API token management.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/extract"
	"github.com/lumenlabs/lumen-api/internal/linkmeta"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/store"
	"github.com/lumenlabs/lumen-api/internal/task"
)

// DocumentOptions are the caller-supplied knobs for document processing.
type DocumentOptions struct {
	// Language selects the analysis prompt language and is passed to OCR
	// as a hint. Empty means English.
	Language string

	// CustomPrompt replaces the built-in analysis prompt when non-empty.
	CustomPrompt string

	// Model overrides the default analysis model when non-empty.
	Model string

	// ForceOCR skips the PDF text layer.
	ForceOCR bool

	// SkipOCRFallback disables the OCR fallback for thin PDF text layers.
	SkipOCRFallback bool

	// SkipAnalysis completes the task with extracted text only.
	SkipAnalysis bool

	// UseVisionOCR routes the document through the vision model instead
	// of the extraction pipeline. Exclusive with the other strategies.
	UseVisionOCR bool
}

// LinkOptions are the caller-supplied knobs for link processing.
type LinkOptions struct {
	// Language is a transcription hint for video links.
	Language string
}

// TaskService owns the task lifecycle: it creates task records, schedules
// background processing, and serves status, result, list, and delete
// requests with owner checks.
type TaskService struct {
	tasks       store.TaskStore
	runner      TaskSubmitter
	pipeline    ExtractionPipeline
	analyzer    Analyzer
	web         WebScraper
	video       VideoProcessor
	transcriber Transcriber
	credentials CredentialSource
	summarizers SummarizerFactory
}

// NewTaskService wires a TaskService from its collaborators.
func NewTaskService(
	tasks store.TaskStore,
	runner TaskSubmitter,
	pipeline ExtractionPipeline,
	analyzer Analyzer,
	web WebScraper,
	video VideoProcessor,
	transcriber Transcriber,
	credentials CredentialSource,
	summarizers SummarizerFactory,
) *TaskService {
	return &TaskService{
		tasks:       tasks,
		runner:      runner,
		pipeline:    pipeline,
		analyzer:    analyzer,
		web:         web,
		video:       video,
		transcriber: transcriber,
		credentials: credentials,
		summarizers: summarizers,
	}
}

// SubmitDocument validates an upload, creates a PENDING task, and schedules
// background processing. The returned task reflects the record as created.
func (s *TaskService) SubmitDocument(ctx context.Context, ownerID uuid.UUID, filename string, data []byte, opts DocumentOptions) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	// Vision OCR accepts anything the model can look at; the pipeline
	// path requires a registered strategy.
	if !opts.UseVisionOCR && !extract.Supported(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}

	t, err := domain.NewDocumentTask(ownerID, filename)
	if err != nil {
		return nil, err
	}
	t.Language = opts.Language
	t.CustomPrompt = opts.CustomPrompt

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	job := &documentJob{
		service:  s,
		taskID:   t.ID,
		filename: filename,
		data:     data,
		opts:     opts,
	}
	if err := s.schedule(ctx, t.ID, ownerID, job); err != nil {
		return nil, err
	}

	log.Info("document task submitted", "task_id", t.ID, "filename", filename, "owner_id", ownerID)
	return t, nil
}

// SubmitLink validates a URL, classifies it, creates a PENDING task, and
// schedules background processing.
func (s *TaskService) SubmitLink(ctx context.Context, ownerID uuid.UUID, rawURL string, opts LinkOptions) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	if !validHTTPURL(rawURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	contentType := linkmeta.Classify(rawURL)
	t, err := domain.NewLinkTask(ownerID, rawURL, contentType)
	if err != nil {
		return nil, err
	}
	t.Language = opts.Language

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	job := &linkJob{
		service: s,
		taskID:  t.ID,
		ownerID: ownerID,
		url:     rawURL,
		kind:    contentType,
		opts:    opts,
	}
	if err := s.schedule(ctx, t.ID, ownerID, job); err != nil {
		return nil, err
	}

	log.Info("link task submitted", "task_id", t.ID, "content_type", contentType, "owner_id", ownerID)
	return t, nil
}

// schedule enqueues the job, rolling back the task record when the queue
// rejects it so no orphaned PENDING row is left behind.
func (s *TaskService) schedule(ctx context.Context, taskID, ownerID uuid.UUID, job task.Task) error {
	err := s.runner.Submit(job)
	if err == nil {
		return nil
	}

	if _, delErr := s.tasks.Delete(ctx, taskID, ownerID); delErr != nil {
		logger.FromContext(ctx).Error("failed to roll back unscheduled task", "task_id", taskID, "error", delErr)
	}
	if errors.Is(err, task.ErrQueueFull) {
		return ErrBusy
	}
	return fmt.Errorf("failed to schedule task: %w", err)
}

// GetTask returns a task visible to the caller. Unknown IDs and tasks owned
// by someone else are indistinguishable.
func (s *TaskService) GetTask(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if t.OwnerID != callerID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// GetResult returns a task including its result payload. A task that is
// still PENDING or PROCESSING comes back without a payload, not as an
// error; a FAILED task is returned so the caller can read its error
// message. Visibility rules are the same as GetTask.
func (s *TaskService) GetResult(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	return s.GetTask(ctx, callerID, taskID)
}

// ListTasks returns the caller's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, callerID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes the caller's task and reports whether anything was
// deleted. Deleting a missing or foreign task returns false, not an error,
// so the operation is idempotent.
func (s *TaskService) DeleteTask(ctx context.Context, callerID, taskID uuid.UUID) (bool, error) {
	deleted, err := s.tasks.Delete(ctx, taskID, callerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return deleted, nil
}

func validHTTPURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
