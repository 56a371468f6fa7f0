package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/api/shared"
	"github.com/lumenlabs/lumen-api/internal/service"
)

// maxUploadBytes caps document uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// TaskHandler serves the task submission and lifecycle endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// submitLinkRequest is the body of POST /api/links.
type submitLinkRequest struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

// SubmitDocument handles POST /api/documents. The body is a multipart form
// with the file plus optional processing options.
func (h *TaskHandler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "failed to read upload")
		return
	}

	// use_ocr and use_analysis default to enabled; only an explicit
	// "false" turns them off.
	opts := service.DocumentOptions{
		Language:        r.FormValue("language"),
		CustomPrompt:    r.FormValue("custom_prompt"),
		Model:           r.FormValue("model"),
		ForceOCR:        parseBool(r.FormValue("force_ocr")),
		UseVisionOCR:    parseBool(r.FormValue("use_vision_ocr")),
		SkipOCRFallback: disabled(r.FormValue("use_ocr")),
		SkipAnalysis:    disabled(r.FormValue("use_analysis")),
	}

	created, err := h.tasks.SubmitDocument(ctx, callerID, header.Filename, data, opts)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusAccepted, created)
}

// SubmitLink handles POST /api/links.
func (h *TaskHandler) SubmitLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req submitLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.tasks.SubmitLink(ctx, callerID, req.URL, service.LinkOptions{Language: req.Language})
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusAccepted, created)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, taskID, ok := h.callerAndTask(w, r)
	if !ok {
		return
	}

	t, err := h.tasks.GetTask(ctx, callerID, taskID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, t)
}

// GetResult handles GET /api/tasks/{id}/result.
func (h *TaskHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, taskID, ok := h.callerAndTask(w, r)
	if !ok {
		return
	}

	t, err := h.tasks.GetResult(ctx, callerID, taskID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, t)
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	tasks, err := h.tasks.ListTasks(ctx, callerID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, tasks)
}

// Delete handles DELETE /api/tasks/{id}. The operation is idempotent: the
// response reports whether a task was actually removed.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, taskID, ok := h.callerAndTask(w, r)
	if !ok {
		return
	}

	deleted, err := h.tasks.DeleteTask(ctx, callerID, taskID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// callerAndTask extracts the authenticated caller and the task ID path
// parameter, writing the error response itself on failure.
func (h *TaskHandler) callerAndTask(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ctx := r.Context()
	callerID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "invalid task id")
		return uuid.Nil, uuid.Nil, false
	}
	return callerID, taskID, true
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// disabled reports whether an optional boolean form field was explicitly
// set to false. Absent or unparseable values leave the feature enabled.
func disabled(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && !b
}
