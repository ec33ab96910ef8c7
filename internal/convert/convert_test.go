// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// fakeConverter implements Converter for testing. It writes canned content
// to the output path or returns an error, depending on configuration.
type fakeConverter struct {
	output string
	format types.OutputFormat
	err    error
	calls  int
}

func (f *fakeConverter) Convert(ctx context.Context, inputPath, outputPath string) (types.ConversionResult, error) {
	f.calls++
	if f.err != nil {
		return types.ConversionResult{}, f.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return types.ConversionResult{}, err
	}
	if err := os.WriteFile(outputPath, []byte(f.output), 0o644); err != nil {
		return types.ConversionResult{}, err
	}
	format := f.format
	if format == "" {
		format = types.FormatDoc
	}
	return types.ConversionResult{OutputPath: outputPath, Format: format, Bytes: int64(len(f.output))}, nil
}

// setupPDF creates a temporary PDF file and returns its path and the temp dir.
func setupPDF(t *testing.T) (pdfPath, tmpDir string) {
	t.Helper()
	tmpDir = t.TempDir()
	pdfPath = filepath.Join(tmpDir, "invoice.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644))
	return pdfPath, tmpDir
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		converter  *fakeConverter
		preCreate  bool // create output .doc before running
		force      bool
		wantStatus types.ConversionStatus
		wantLog    string
		wantCalls  int
	}{
		{
			name:       "successful conversion",
			converter:  &fakeConverter{output: "doc bytes"},
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
			wantCalls:  1,
		},
		{
			name:       "degraded output noted",
			converter:  &fakeConverter{output: "PK", format: types.FormatDocxRenamed},
			wantStatus: types.ConversionDone,
			wantLog:    "office converter unavailable",
			wantCalls:  1,
		},
		{
			name:       "skip existing output",
			converter:  &fakeConverter{output: "should not be called"},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
		},
		{
			name:       "force overwrites existing output",
			converter:  &fakeConverter{output: "fresh"},
			preCreate:  true,
			force:      true,
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
			wantCalls:  1,
		},
		{
			name:       "conversion failure",
			converter:  &fakeConverter{err: ErrEmptyContent},
			wantStatus: types.ConversionFailed,
			wantLog:    "no text content could be extracted",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfPath, tmpDir := setupPDF(t)
			outDir := filepath.Join(tmpDir, "out")

			if tt.preCreate {
				require.NoError(t, os.MkdirAll(outDir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(outDir, "invoice.doc"), []byte("existing"), 0o644))
			}

			var log bytes.Buffer
			opts := Options{OutDir: outDir, Force: tt.force}
			status := ConvertFile(context.Background(), tt.converter, pdfPath, opts, &log)

			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, log.String(), tt.wantLog)
			assert.Equal(t, tt.wantCalls, tt.converter.calls)
		})
	}
}

func TestConvertFile_DefaultsToInputDir(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)
	var log bytes.Buffer
	status := ConvertFile(context.Background(), &fakeConverter{output: "x"}, pdfPath, Options{}, &log)
	require.Equal(t, types.ConversionDone, status)
	assert.FileExists(t, filepath.Join(tmpDir, "invoice.doc"))
}

func TestConvertFile_RejectsInvalidInput(t *testing.T) {
	tmpDir := t.TempDir()
	empty := filepath.Join(tmpDir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	notPDF := filepath.Join(tmpDir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hi"), 0o644))

	conv := &fakeConverter{output: "x"}
	var log bytes.Buffer
	assert.Equal(t, types.ConversionFailed, ConvertFile(context.Background(), conv, empty, Options{}, &log))
	assert.Equal(t, types.ConversionFailed, ConvertFile(context.Background(), conv, notPDF, Options{}, &log))
	assert.Zero(t, conv.calls)
	assert.Contains(t, log.String(), "file is empty")
	assert.Contains(t, log.String(), ".pdf extension")
}

func TestConvertBatch(t *testing.T) {
	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	outDir := filepath.Join(tmpDir, "out")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	// Create 3 PDFs: one will succeed, one will be pre-existing, one will fail.
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(rawDir, name), []byte("pdf"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "b.doc"), []byte("existing"), 0o644))

	conv := &selectiveConverter{
		errors: map[string]error{
			filepath.Join(rawDir, "c.pdf"): errors.New("bad pdf"),
		},
	}
	paths := []string{
		filepath.Join(rawDir, "a.pdf"),
		filepath.Join(rawDir, "b.pdf"),
		filepath.Join(rawDir, "c.pdf"),
	}

	var log bytes.Buffer
	result := ConvertBatch(context.Background(), conv, paths, Options{OutDir: outDir}, &log)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 3, result.Total())
	assert.Contains(t, log.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
	assert.FileExists(t, filepath.Join(outDir, "a.doc"))
	assert.NoFileExists(t, filepath.Join(outDir, "c.doc"))
}

func TestConvertBatch_Cancelled(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &fakeConverter{output: "x"}
	var log bytes.Buffer
	result := ConvertBatch(ctx, conv, []string{pdfPath}, Options{OutDir: tmpDir}, &log)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, conv.calls)
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		max     int64
		wantErr error
	}{
		{"ok", "a.pdf", 10, 100, nil},
		{"upper-case extension", "A.PDF", 10, 100, nil},
		{"no limit", "a.pdf", 1 << 40, 0, nil},
		{"wrong extension", "a.docx", 10, 100, ErrNotPDF},
		{"no extension", "pdf", 10, 100, ErrNotPDF},
		{"empty", "a.pdf", 0, 100, ErrEmptyFile},
		{"too large", "a.pdf", 101, 100, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.file, tt.size, tt.max)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "report.doc", OutputName("/tmp/in/report.pdf"))
	assert.Equal(t, "Scan 01.doc", OutputName("Scan 01.PDF"))
	assert.Equal(t, "a.b.doc", OutputName("a.b.pdf"))
}

// selectiveConverter fails for configured paths and succeeds otherwise.
type selectiveConverter struct {
	errors map[string]error
}

func (s *selectiveConverter) Convert(ctx context.Context, inputPath, outputPath string) (types.ConversionResult, error) {
	if err, ok := s.errors[inputPath]; ok {
		return types.ConversionResult{}, err
	}
	if !strings.HasSuffix(outputPath, OutputExt) {
		return types.ConversionResult{}, errors.New("unexpected output: " + outputPath)
	}
	if err := os.WriteFile(outputPath, []byte("doc"), 0o644); err != nil {
		return types.ConversionResult{}, err
	}
	return types.ConversionResult{OutputPath: outputPath, Format: types.FormatDoc}, nil
}
