package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// Compile-time check that PostgresTaskStore implements store.TaskStore.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the column list shared by all task SELECT statements.
const taskColumns = `id, owner_id, kind, status, original_filename, url,
	content_type, language, custom_prompt, video_title, video_description,
	video_duration, transcription_text, summary_text, result, error_message,
	created_at, updated_at, completed_at`

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a task store backed by the given database
// handle, which may be a *sql.DB or a *sql.Tx.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// Create persists a new task in PENDING state.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}

	query := `
		INSERT INTO tasks (id, owner_id, kind, status, original_filename, url,
			content_type, language, custom_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Kind, task.Status,
		task.OriginalFilename, task.URL, nullableString(string(task.ContentType)),
		task.Language, task.CustomPrompt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return store.NewStoreError("task", "create", "duplicate task id", store.ErrDuplicate)
		}
		log.Error("failed to insert task", "error", err, "task_id", task.ID)
		return store.NewStoreError("task", "create", "database error", err)
	}

	log.Debug("task created", "task_id", task.ID, "kind", task.Kind)
	return nil
}

// GetByID retrieves a task by its unique ID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "database error", err)
	}
	return task, nil
}

// ListByOwner retrieves all tasks submitted by the given owner, newest first.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, store.NewStoreError("task", "list", "database error", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "scan error", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "row iteration error", err)
	}
	return tasks, nil
}

// MarkProcessing transitions a PENDING task to PROCESSING. The status guard
// in the WHERE clause makes the transition monotonic: a task that has
// already moved on is left untouched and ErrUpdateFailed is returned.
func (s *PostgresTaskStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	return s.guardedUpdate(ctx, "mark_processing", query,
		domain.TaskStatusProcessing, time.Now().UTC(), id, domain.TaskStatusPending)
}

// Complete transitions a PROCESSING task to COMPLETED, writing all outcome
// fields and the completion timestamp in a single statement.
func (s *PostgresTaskStore) Complete(ctx context.Context, id uuid.UUID, outcome store.TaskOutcome) error {
	now := time.Now().UTC()
	query := `UPDATE tasks
		SET status = $1, result = $2, video_title = $3, video_description = $4,
			video_duration = $5, transcription_text = $6, summary_text = $7,
			updated_at = $8, completed_at = $8
		WHERE id = $9 AND status = $10`

	return s.guardedUpdate(ctx, "complete", query,
		domain.TaskStatusCompleted, nullableJSON(outcome.Result),
		outcome.VideoTitle, outcome.VideoDescription, outcome.VideoDuration,
		outcome.TranscriptionText, outcome.SummaryText,
		now, id, domain.TaskStatusProcessing)
}

// Fail transitions a PROCESSING task to FAILED with an error message.
func (s *PostgresTaskStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	now := time.Now().UTC()
	query := `UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3, completed_at = $3
		WHERE id = $4 AND status = $5`

	return s.guardedUpdate(ctx, "fail", query,
		domain.TaskStatusFailed, errorMessage, now, id, domain.TaskStatusProcessing)
}

// Delete removes a task owned by ownerID. A missing or foreign row is not
// an error; the boolean result reports whether anything was removed.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	res, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, store.NewStoreError("task", "delete", "database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("task", "delete", "rows affected error", err)
	}
	return n > 0, nil
}

// guardedUpdate runs a status-guarded UPDATE and maps a zero row count to
// ErrUpdateFailed.
func (s *PostgresTaskStore) guardedUpdate(ctx context.Context, op, query string, args ...any) error {
	log := logger.FromContext(ctx)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("task update failed", "operation", op, "error", err)
		return store.NewStoreError("task", op, "database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.NewStoreError("task", op, "rows affected error", err)
	}
	if n == 0 {
		return store.NewStoreError("task", op, "no matching row in expected status", store.ErrUpdateFailed)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		contentType sql.NullString
		result      []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID, &task.OwnerID, &task.Kind, &task.Status,
		&task.OriginalFilename, &task.URL, &contentType,
		&task.Language, &task.CustomPrompt,
		&task.VideoTitle, &task.VideoDescription, &task.VideoDuration,
		&task.TranscriptionText, &task.SummaryText,
		&result, &task.ErrorMessage,
		&task.CreatedAt, &task.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if contentType.Valid {
		task.ContentType = domain.ContentType(contentType.String)
	}
	if len(result) > 0 {
		task.Result = result
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableJSON maps an empty payload to SQL NULL so the jsonb column does
// not store an empty string.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
