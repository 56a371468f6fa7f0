package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing state of a task.
type TaskStatus string

// Possible task status values. Transitions are monotonic:
// PENDING -> PROCESSING -> {COMPLETED | FAILED}. COMPLETED and FAILED
// are terminal.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// TaskKind distinguishes the two submission kinds.
type TaskKind string

const (
	TaskKindDocument TaskKind = "DOCUMENT"
	TaskKindLink     TaskKind = "LINK"
)

// ContentType classifies a submitted URL.
type ContentType string

const (
	ContentTypeWebPage ContentType = "WEBPAGE"
	ContentTypeVideo   ContentType = "VIDEO"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwnerID   = errors.New("task owner ID cannot be empty")
	ErrInvalidTaskKind    = errors.New("invalid task kind")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrEmptyFilename      = errors.New("document task requires an original filename")
	ErrEmptyURL           = errors.New("link task requires a URL")
	ErrInvalidContentType = errors.New("invalid link content type")
)

// Task represents one asynchronous document or link submission. It tracks
// the submission inputs, the processing state, and the terminal outcome.
//
// Kind-specific fields: OriginalFilename is set only for DOCUMENT tasks;
// URL, ContentType, the video metadata fields, TranscriptionText and
// SummaryText only for LINK tasks.
type Task struct {
	ID      uuid.UUID  `json:"id"`
	OwnerID uuid.UUID  `json:"owner_id"`
	Kind    TaskKind   `json:"kind"`
	Status  TaskStatus `json:"status"`

	OriginalFilename string `json:"original_filename,omitempty"`

	URL               string      `json:"url,omitempty"`
	ContentType       ContentType `json:"content_type,omitempty"`
	Language          string      `json:"language,omitempty"`
	CustomPrompt      string      `json:"custom_prompt,omitempty"`
	VideoTitle        string      `json:"video_title,omitempty"`
	VideoDescription  string      `json:"video_description,omitempty"`
	VideoDuration     float64     `json:"video_duration,omitempty"`
	TranscriptionText string      `json:"transcription_text,omitempty"`
	SummaryText       string      `json:"summary_text,omitempty"`

	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewDocumentTask creates a new DOCUMENT task in PENDING state for the
// given owner and uploaded filename. Returns an error if validation fails.
func NewDocumentTask(ownerID uuid.UUID, originalFilename string) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Kind:             TaskKindDocument,
		Status:           TaskStatusPending,
		OriginalFilename: originalFilename,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewLinkTask creates a new LINK task in PENDING state for the given owner,
// URL and detected content type. Returns an error if validation fails.
func NewLinkTask(ownerID uuid.UUID, url string, contentType ContentType) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        TaskKindLink,
		Status:      TaskStatusPending,
		URL:         url,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	switch t.Kind {
	case TaskKindDocument:
		if t.OriginalFilename == "" {
			return ErrEmptyFilename
		}
	case TaskKindLink:
		if t.URL == "" {
			return ErrEmptyURL
		}
		if t.ContentType != ContentTypeWebPage && t.ContentType != ContentTypeVideo {
			return ErrInvalidContentType
		}
	default:
		return ErrInvalidTaskKind
	}

	return nil
}

// IsTerminal reports whether the task has reached a terminal state.
// Terminal tasks never change again.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
