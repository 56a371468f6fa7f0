package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/extract"
	"github.com/lumenlabs/lumen-api/internal/platform/secrets"
	"github.com/lumenlabs/lumen-api/internal/platform/videoclient"
	"github.com/lumenlabs/lumen-api/internal/service"
	"github.com/lumenlabs/lumen-api/internal/service/auth"
	"github.com/lumenlabs/lumen-api/internal/store"
	"github.com/lumenlabs/lumen-api/internal/task"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// memTaskStore is a minimal in-memory store.TaskStore for handler tests.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (m *memTaskStore) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTaskStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range m.tasks {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTaskStore) MarkProcessing(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok && t.Status == domain.TaskStatusPending {
		t.Status = domain.TaskStatusProcessing
		return nil
	}
	return store.ErrUpdateFailed
}

func (m *memTaskStore) Complete(_ context.Context, id uuid.UUID, outcome store.TaskOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok && t.Status == domain.TaskStatusProcessing {
		t.Status = domain.TaskStatusCompleted
		t.Result = outcome.Result
		t.SummaryText = outcome.SummaryText
		return nil
	}
	return store.ErrUpdateFailed
}

func (m *memTaskStore) Fail(_ context.Context, id uuid.UUID, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok && t.Status == domain.TaskStatusProcessing {
		t.Status = domain.TaskStatusFailed
		t.ErrorMessage = msg
		return nil
	}
	return store.ErrUpdateFailed
}

func (m *memTaskStore) Delete(_ context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok && t.OwnerID == ownerID {
		delete(m.tasks, id)
		return true, nil
	}
	return false, nil
}

type syncRunner struct{}

func (syncRunner) Submit(t task.Task) error {
	t.Execute(context.Background())
	return nil
}

type stubPipeline struct{}

func (stubPipeline) Extract(_ context.Context, _ string, _ []byte, _ extract.Options) (extract.Result, error) {
	return extract.Result{Text: "extracted", Method: extract.MethodNative}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, _, _, _ string) (string, error) {
	return "analysis", nil
}
func (stubAnalyzer) AnalyzeWithPrompt(_ context.Context, _, _, _ string) (string, error) {
	return "analysis", nil
}
func (stubAnalyzer) ExtractWithVision(_ context.Context, _ []byte, _ string) (string, error) {
	return "vision text", nil
}

type stubWeb struct{}

func (stubWeb) IsAccessible(_ context.Context, _ string) bool        { return true }
func (stubWeb) PageTitle(_ context.Context, _ string) string         { return "Title" }
func (stubWeb) PageText(_ context.Context, _ string) (string, error) { return "body", nil }

type stubVideo struct{}

func (stubVideo) FetchMetadata(_ context.Context, _ string) (*videoclient.Metadata, error) {
	return &videoclient.Metadata{Title: "V", Duration: 10}, nil
}
func (stubVideo) DownloadAudio(_ context.Context, _ string) ([]byte, error) {
	return []byte("audio"), nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(_ context.Context, _ []byte, _ videoclient.TranscribeOptions) (string, error) {
	return "transcript", nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return "summary", nil
}

type stubProber struct{ healthy bool }

func (p stubProber) Healthy(_ context.Context) bool { return p.healthy }

// testServer wires the full router against in-memory stores.
type testServer struct {
	server *httptest.Server
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	jwtSvc, err := auth.NewJWTService(testJWTSecret, time.Hour)
	require.NoError(t, err)

	enc, err := secrets.NewEncryptor([]byte("abcdefghijklmnopqrstuvwxyz012345"))
	require.NoError(t, err)

	tokenStore := newMemTokenStore()
	tokenSvc := service.NewTokenService(tokenStore, enc)

	taskSvc := service.NewTaskService(
		newMemTaskStore(), syncRunner{}, stubPipeline{}, stubAnalyzer{},
		stubWeb{}, stubVideo{}, stubTranscriber{}, tokenSvc,
		func(_ context.Context, _, _ string) (service.Summarizer, error) {
			return stubSummarizer{}, nil
		},
	)

	handler := NewRouter(
		log, jwtSvc,
		NewTaskHandler(taskSvc), NewTokenHandler(tokenSvc),
		NewHealthHandler(stubProber{healthy: true}, stubProber{healthy: true}),
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, jwt: jwtSvc}
}

func (ts *testServer) request(t *testing.T, method, path string, body io.Reader, userID uuid.UUID, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != uuid.Nil {
		token, err := ts.jwt.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeTask(t *testing.T, resp *http.Response) domain.Task {
	t.Helper()
	defer resp.Body.Close()
	var out domain.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmitDocumentEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	body, contentType := multipartUpload(t, "notes.txt", []byte("hello"), map[string]string{"language": "ja"})
	resp := ts.request(t, http.MethodPost, "/api/documents", body, user, contentType)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	created := decodeTask(t, resp)
	assert.Equal(t, domain.TaskKindDocument, created.Kind)

	// The sync runner finished processing before the response; result is
	// ready immediately.
	resp = ts.request(t, http.MethodGet, "/api/tasks/"+created.ID.String()+"/result", nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decodeTask(t, resp)
	assert.Equal(t, domain.TaskStatusCompleted, final.Status)
	assert.NotEmpty(t, final.Result)
}

func TestSubmitDocumentRequiresAuth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	body, contentType := multipartUpload(t, "a.txt", []byte("x"), nil)
	resp := ts.request(t, http.MethodPost, "/api/documents", body, uuid.Nil, contentType)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitDocumentUnsupportedFormat(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	body, contentType := multipartUpload(t, "virus.exe", []byte("x"), nil)
	resp := ts.request(t, http.MethodPost, "/api/documents", body, uuid.New(), contentType)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitLinkEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	// Store a credential so summarization can run.
	tokenBody := bytes.NewBufferString(`{"provider":"gemini","value":"g-key"}`)
	resp := ts.request(t, http.MethodPost, "/api/tokens", tokenBody, user, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	linkBody := bytes.NewBufferString(`{"url":"https://example.com/blog/post"}`)
	resp = ts.request(t, http.MethodPost, "/api/links", linkBody, user, "application/json")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	created := decodeTask(t, resp)
	assert.Equal(t, domain.ContentTypeWebPage, created.ContentType)

	resp = ts.request(t, http.MethodGet, "/api/tasks/"+created.ID.String(), nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decodeTask(t, resp)
	assert.Equal(t, domain.TaskStatusCompleted, final.Status)
}

func TestSubmitLinkInvalidURL(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	body := bytes.NewBufferString(`{"url":"notaurl"}`)
	resp := ts.request(t, http.MethodPost, "/api/links", body, uuid.New(), "application/json")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTaskForeignReturns404(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	owner := uuid.New()
	stranger := uuid.New()

	body, contentType := multipartUpload(t, "a.txt", []byte("x"), nil)
	resp := ts.request(t, http.MethodPost, "/api/documents", body, owner, contentType)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	created := decodeTask(t, resp)

	resp = ts.request(t, http.MethodGet, "/api/tasks/"+created.ID.String(), nil, stranger, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Unknown ID reads identically.
	resp2 := ts.request(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil, owner, "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestDeleteTaskEndpointIdempotent(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	body, contentType := multipartUpload(t, "a.txt", []byte("x"), nil)
	resp := ts.request(t, http.MethodPost, "/api/documents", body, user, contentType)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	created := decodeTask(t, resp)

	resp = ts.request(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.True(t, out["deleted"])

	resp = ts.request(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.False(t, out["deleted"])
}

func TestListTasksScopedToCaller(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()

	body, contentType := multipartUpload(t, "a.txt", []byte("x"), nil)
	resp := ts.request(t, http.MethodPost, "/api/documents", body, alice, contentType)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = ts.request(t, http.MethodGet, "/api/tasks", nil, bob, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []domain.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	resp.Body.Close()
	assert.Empty(t, tasks)
}

func TestLinkServicesHealthEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/links/health", nil, uuid.New(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.True(t, out["video_service"])
	assert.True(t, out["transcription_service"])

	// The probe sits behind auth like the rest of /api.
	resp2 := ts.request(t, http.MethodGet, "/api/links/health", nil, uuid.Nil, "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestHealthEndpointUnauthenticated(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
