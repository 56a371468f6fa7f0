package ocrclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTextFieldOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		want   string
		errIs  error
	}{
		{
			name:   "text wins over everything",
			result: Result{Text: "full text", Analysis: "analysis", Pages: []Page{{Text: "page"}}},
			want:   "full text",
		},
		{
			name:   "analysis when text empty",
			result: Result{Analysis: "analysis text", Pages: []Page{{Text: "page"}}},
			want:   "analysis text",
		},
		{
			name:   "pages joined when others empty",
			result: Result{Pages: []Page{{Number: 1, Text: "one"}, {Number: 2, Text: "two"}}},
			want:   "one\ntwo",
		},
		{
			name:   "whitespace-only fields skipped",
			result: Result{Text: "   ", Analysis: "\n", Pages: []Page{{Text: "real"}}},
			want:   "real",
		},
		{
			name:   "all empty",
			result: Result{},
			errIs:  ErrNoText,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.result.ResolveText()
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSubmitSendsMultipartForm(t *testing.T) {
	t.Parallel()

	var gotMode, gotLanguage, gotFilename string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ocr/process", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotMode = r.FormValue("mode")
		gotLanguage = r.FormValue("language")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBytes = make([]byte, header.Size)
		file.Read(gotBytes)

		json.NewEncoder(w).Encode(Result{Text: "recognized"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.Submit(context.Background(), "scan.pdf", []byte("pdfdata"), ModeVision, "ja")
	require.NoError(t, err)

	assert.Equal(t, "recognized", result.Text)
	assert.Equal(t, "vision", gotMode)
	assert.Equal(t, "ja", gotLanguage)
	assert.Equal(t, "scan.pdf", gotFilename)
	assert.Equal(t, []byte("pdfdata"), gotBytes)
}

func TestSubmitErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Submit(context.Background(), "a.png", []byte("img"), ModeStructural, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestRecognizeTextResolvesPages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Pages: []Page{{Number: 1, Text: "page one"}}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	text, err := client.RecognizeText(context.Background(), "a.png", []byte("img"), "")
	require.NoError(t, err)
	assert.Equal(t, "page one", text)
}

func TestRecognizeTextEmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.RecognizeText(context.Background(), "a.png", []byte("img"), "")
	assert.ErrorIs(t, err, ErrNoText)
}
