// Package task provides the background task abstraction and a bounded
// worker pool that executes tasks submitted by the service layer.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task is a unit of background work. Implementations own their full
// lifecycle, including persisting status transitions; the runner only
// schedules execution and contains panics.
type Task interface {
	// ID returns the unique identifier of the task.
	ID() uuid.UUID

	// Kind returns a short label for logging.
	Kind() string

	// Execute runs the task to completion.
	Execute(ctx context.Context) error
}
