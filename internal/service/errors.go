package service

import "errors"

// Service-level errors mapped to HTTP responses by the API layer.
var (
	// ErrTaskNotFound is returned both when a task does not exist and when
	// it belongs to another owner, so callers cannot probe for foreign
	// task IDs.
	ErrTaskNotFound = errors.New("task not found")

	// ErrUnsupportedFormat is returned at submission time for files with
	// no extraction strategy.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when an uploaded document has no content.
	ErrEmptyFile = errors.New("uploaded file is empty")

	// ErrInvalidURL is returned when a submitted link cannot be parsed as
	// an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrBusy is returned when the task queue is at capacity.
	ErrBusy = errors.New("service is busy, try again later")

	// ErrNoCredential is recorded on link tasks when the owner has no
	// stored AI provider token and the service has no fallback.
	ErrNoCredential = errors.New("no AI credential configured")

	// ErrTokenNotFound is returned when a requested API token does not
	// exist or belongs to another user.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExists is returned when storing a second token for the same
	// provider.
	ErrTokenExists = errors.New("token for this provider already exists")
)
