package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lumenlabs/lumen-api/internal/domain"
)

// TaskOutcome carries the fields written by the single terminal transition
// of a successful task. Video metadata and transcript fields are only
// populated for LINK tasks; Result is the opaque payload returned to
// clients once the task is COMPLETED.
type TaskOutcome struct {
	Result            json.RawMessage
	VideoTitle        string
	VideoDescription  string
	VideoDuration     float64
	TranscriptionText string
	SummaryText       string
}

// TaskStore defines the persistence interface for task records.
//
// Status writes are monotonic by construction: MarkProcessing only moves a
// PENDING row, and Complete/Fail only move a PROCESSING row. A write that
// matches no row returns ErrUpdateFailed, so a terminal row can never be
// rewritten.
type TaskStore interface {
	// Create persists a new task in PENDING state.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if no task with the ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner retrieves all tasks submitted by the given owner,
	// newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// MarkProcessing transitions a PENDING task to PROCESSING.
	MarkProcessing(ctx context.Context, id uuid.UUID) error

	// Complete transitions a PROCESSING task to COMPLETED, writing the
	// outcome fields and the completion timestamp in a single statement.
	Complete(ctx context.Context, id uuid.UUID, outcome TaskOutcome) error

	// Fail transitions a PROCESSING task to FAILED with the given
	// human-readable error message.
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error

	// Delete removes a task owned by ownerID. Returns true if a row was
	// deleted, false if the task does not exist or is owned by someone
	// else. Never returns an error for a missing row.
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error)
}
