// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/extract"
	"github.com/pdiddy/pdf2doc/internal/pdftest"
	"github.com/pdiddy/pdf2doc/internal/stats"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

// fakeConverter writes fixed bytes or fails.
type fakeConverter struct {
	err     error
	gotUser string
}

func (f *fakeConverter) Convert(ctx context.Context, inputPath, outputPath string) (types.ConversionResult, error) {
	f.gotUser = stats.UserFrom(ctx)
	if f.err != nil {
		return types.ConversionResult{}, f.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return types.ConversionResult{}, err
	}
	body := []byte("converted document")
	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return types.ConversionResult{}, err
	}
	return types.ConversionResult{JobID: "job-1", OutputPath: outputPath, Format: types.FormatDoc, Bytes: int64(len(body))}, nil
}

func newTestServer(conv convert.Converter, cfg Config) (*Server, *stats.Memory) {
	mem := stats.NewMemory()
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 1 << 20
	}
	return New(conv, mem, cfg, zerolog.Nop()), mem
}

func uploadRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&fakeConverter{}, Config{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestConvert_Success(t *testing.T) {
	conv := &fakeConverter{}
	s, _ := newTestServer(conv, Config{})

	req := uploadRequest(t, "file", "report.pdf", []byte("%PDF-1.4"))
	req.Header.Set(HeaderUserID, "42")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "converted document", rr.Body.String())
	assert.Equal(t, contentTypeDoc, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="report.doc"`)
	assert.Equal(t, "job-1", rr.Header().Get(HeaderJobID))
	assert.Equal(t, "doc", rr.Header().Get(HeaderFormat))
	assert.Equal(t, "42", conv.gotUser)
}

func TestConvert_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantErr    string
	}{
		{
			name:       "not a pdf",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "file", "notes.txt", []byte("hi")) },
			wantStatus: http.StatusBadRequest,
			wantErr:    ".pdf extension",
		},
		{
			name:       "empty file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "file", "a.pdf", nil) },
			wantStatus: http.StatusBadRequest,
			wantErr:    "empty",
		},
		{
			name:       "missing field",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "document", "a.pdf", []byte("x")) },
			wantStatus: http.StatusBadRequest,
			wantErr:    "File is required",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "a.pdf", bytes.Repeat([]byte("x"), 2048))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader("raw"))
			},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{}
			s, _ := newTestServer(conv, Config{MaxFileSize: 1024})
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, tt.req(t))

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantErr != "" {
				assert.Contains(t, decodeError(t, rr), tt.wantErr)
			}
			assert.Empty(t, conv.gotUser, "converter must not run")
		})
	}
}

func TestConvert_FailureReasons(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantErr    string
	}{
		{"empty content", convert.ErrEmptyContent, http.StatusUnprocessableEntity, "No text content could be extracted"},
		{"extraction", &extract.ExtractionError{Path: "a.pdf"}, http.StatusUnprocessableEntity, "could not be read"},
		{"render", convert.ErrRender, http.StatusInternalServerError, "could not be built"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "Conversion failed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeConverter{err: tt.err}, Config{})
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, uploadRequest(t, "file", "a.pdf", []byte("x")))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, decodeError(t, rr), tt.wantErr)
		})
	}
}

func TestConvert_EndToEnd(t *testing.T) {
	mem := stats.NewMemory()
	chain := extract.NewChain(zerolog.Nop(), extract.NewTabula(), extract.NewPlainText())
	p := convert.NewPipeline(chain, convert.WithRecorder(mem))
	s := New(p, mem, Config{MaxFileSize: 1 << 20}, zerolog.Nop())

	req := uploadRequest(t, "file", "hello.pdf", pdftest.Build("Hello"))
	req.Header.Set(HeaderUserID, "7")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
	assert.Equal(t, string(types.FormatDocxRenamed), rr.Header().Get(HeaderFormat))

	got := mem.User("7")
	assert.Equal(t, 1, got.Conversions)
	assert.Equal(t, int64(rr.Body.Len()), got.BytesProduced)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeConverter{}, Config{APIToken: "s3cret"})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/help", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	// Health stays open.
	s, _ := newTestServer(&fakeConverter{}, Config{APIToken: "s3cret"})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestStats(t *testing.T) {
	s, mem := newTestServer(&fakeConverter{}, Config{})
	mem.Record(stats.Event{User: "alice", InputBytes: 10, OutputBytes: 4, Pages: 1})
	mem.Record(stats.Event{User: "bob", InputBytes: 5, Failed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set(HeaderUserID, "alice")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got statsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, 1, got.Stats.Conversions)
	assert.Equal(t, int64(15), got.Total.BytesProcessed)
	assert.Equal(t, 1, got.Total.Failures)
}

func TestHelpAndAbout(t *testing.T) {
	s, _ := newTestServer(&fakeConverter{}, Config{
		MaxFileSize: 20 << 20,
		Version:     "v1.2.3",
		Strategies:  []string{"tabula", "pdftext"},
		Converter:   func() string { return "soffice" },
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/help", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var help helpResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &help))
	assert.Contains(t, help.Endpoints, "POST /api/v1/convert")
	assert.Equal(t, "20 MiB", help.Limits.MaxFileHuman)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/about", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var about aboutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &about))
	assert.Equal(t, "v1.2.3", about.Version)
	assert.Equal(t, "soffice", about.Converter)
	assert.Equal(t, []string{"tabula", "pdftext"}, about.Strategies)
	assert.Equal(t, Features, about.Features)
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"get convert", http.MethodGet, "/api/v1/convert", ""},
		{"post stats", http.MethodPost, "/api/v1/stats", ""},
		{"delete about with auth", http.MethodDelete, "/api/v1/about", "secret"},
		{"post health", http.MethodPost, "/health", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeConverter{}, Config{APIToken: tt.token})
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(&fakeConverter{}, Config{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "unlimited", humanSize(0))
	assert.Equal(t, "20 MiB", humanSize(20<<20))
	assert.Equal(t, "1.5 MiB", humanSize(3<<19))
	assert.Equal(t, "2 KiB", humanSize(1500))
}
