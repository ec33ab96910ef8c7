// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/extract"
	"github.com/pdiddy/pdf2doc/internal/stats"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

const (
	// formOverhead is allowed on top of MaxFileSize for multipart framing.
	formOverhead = 1 << 20
	// formMemory is kept in memory while parsing; the rest spills to disk.
	formMemory = 8 << 20

	contentTypeDoc = "application/msword"
)

// convert handles POST /api/v1/convert with a multipart "file" field.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+formOverhead)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum size is %s.", humanSize(s.cfg.MaxFileSize)))
			return
		}
		writeError(w, http.StatusBadRequest, "Multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	name := strings.TrimSpace(filepath.Base(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document.pdf"
	}
	if err := convert.ValidateInput(name, header.Size, s.cfg.MaxFileSize); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, convert.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	workDir, err := os.MkdirTemp("", "pdf2doc-req-*")
	if err != nil {
		s.log.Error().Err(err).Msg("creating request directory")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, name)
	if err := saveUpload(file, inPath); err != nil {
		s.log.Error().Err(err).Msg("saving upload")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	ctx := stats.WithUser(r.Context(), userID(r))
	outName := convert.OutputName(name)
	res, err := s.conv.Convert(ctx, inPath, filepath.Join(workDir, "out", outName))
	if err != nil {
		writeError(w, statusFor(err), failureReason(err))
		return
	}

	out, err := os.Open(res.OutputPath)
	if err != nil {
		s.log.Error().Err(err).Msg("opening result")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	defer out.Close()

	w.Header().Set("Content-Type", contentTypeDoc)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	w.Header().Set("Content-Length", strconv.FormatInt(res.Bytes, 10))
	w.Header().Set(HeaderJobID, res.JobID)
	w.Header().Set(HeaderFormat, string(res.Format))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, out); err != nil {
		s.log.Warn().Err(err).Str("job", res.JobID).Msg("sending result")
	}
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, convert.ErrEmptyContent), errors.Is(err, extract.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// failureReason maps a job error to one human-readable sentence.
func failureReason(err error) string {
	switch {
	case errors.Is(err, convert.ErrEmptyContent):
		return "No text content could be extracted. Scanned or image-only PDFs are not supported."
	case errors.Is(err, extract.ErrExtraction):
		return "The PDF could not be read. It may be corrupt or encrypted."
	case errors.Is(err, convert.ErrRender):
		return "The document could not be built from the extracted content."
	default:
		return "Conversion failed."
	}
}

type statsResponse struct {
	User  string       `json:"user"`
	Stats stats.Counts `json:"stats"`
	Total stats.Counts `json:"total"`
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	writeJSON(w, http.StatusOK, statsResponse{
		User:  user,
		Stats: s.stats.User(user),
		Total: s.stats.Total(),
	})
}

type helpResponse struct {
	Usage     string   `json:"usage"`
	Endpoints []string `json:"endpoints"`
	Limits    limits   `json:"limits"`
}

type limits struct {
	MaxFileSize  int64  `json:"max_file_size"`
	MaxFileHuman string `json:"max_file_size_human"`
	Input        string `json:"input"`
	Output       string `json:"output"`
}

func (s *Server) limits() limits {
	return limits{
		MaxFileSize:  s.cfg.MaxFileSize,
		MaxFileHuman: humanSize(s.cfg.MaxFileSize),
		Input:        ".pdf",
		Output:       ".doc",
	}
}

func (s *Server) help(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, helpResponse{
		Usage: "POST a PDF as multipart field \"file\" to /api/v1/convert; the response body is the .doc file.",
		Endpoints: []string{
			"POST /api/v1/convert",
			"GET /api/v1/stats",
			"GET /api/v1/help",
			"GET /api/v1/about",
			"GET /health",
		},
		Limits: s.limits(),
	})
}

type aboutResponse struct {
	Service    string   `json:"service"`
	Version    string   `json:"version"`
	Features   []string `json:"features"`
	Strategies []string `json:"strategies"`
	Converter  string   `json:"converter"`
	Limits     limits   `json:"limits"`
}

// Features describes what a conversion preserves.
var Features = []string{
	"text extraction with paragraph reconstruction",
	"table detection rendered as Word tables",
	"page headers and page breaks",
	"legacy .doc output through LibreOffice when installed",
}

func (s *Server) about(w http.ResponseWriter, _ *http.Request) {
	conv := ""
	if s.cfg.Converter != nil {
		conv = s.cfg.Converter()
	}
	if conv == "" {
		conv = string(types.FormatDocxRenamed)
	}
	writeJSON(w, http.StatusOK, aboutResponse{
		Service:    "pdf2doc",
		Version:    s.cfg.Version,
		Features:   Features,
		Strategies: s.cfg.Strategies,
		Converter:  conv,
		Limits:     s.limits(),
	})
}

// humanSize formats a byte count as MiB or KiB.
func humanSize(n int64) string {
	switch {
	case n <= 0:
		return "unlimited"
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%d KiB", (n+1023)/1024)
	}
}
