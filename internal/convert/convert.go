// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates PDF-to-DOC conversion: the per-job pipeline
// (extract, render, optional legacy conversion, atomic publish) and batch
// runs over many files.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// OutputExt is the extension given to every produced document.
const OutputExt = ".doc"

// Input validation errors.
var (
	ErrNotPDF    = errors.New("file must have a .pdf extension")
	ErrEmptyFile = errors.New("file is empty")
	ErrTooLarge  = errors.New("file exceeds the size limit")
)

// Converter turns one PDF into one document. *Pipeline implements it.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) (types.ConversionResult, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ValidateInput checks a submitted file's name and size. maxSize <= 0 means
// no limit.
func ValidateInput(name string, size, maxSize int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("%s: %w", filepath.Base(name), ErrNotPDF)
	}
	if size == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyFile)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%s: %w (%d bytes, max %d)", filepath.Base(name), ErrTooLarge, size, maxSize)
	}
	return nil
}

// ValidateFile stats path and applies ValidateInput.
func ValidateFile(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return ValidateInput(path, info.Size(), maxSize)
}

// OutputName returns the document name for a PDF: its base name with the
// .doc extension.
func OutputName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + OutputExt
}

// Options controls a batch run.
type Options struct {
	// OutDir receives the documents. Empty means next to each input.
	OutDir string
	// Force reconverts files whose output already exists.
	Force bool
	// MaxSize is the input size limit in bytes; <= 0 disables it.
	MaxSize int64
}

func (o Options) outputPath(pdfPath string) string {
	dir := o.OutDir
	if dir == "" {
		dir = filepath.Dir(pdfPath)
	}
	return filepath.Join(dir, OutputName(pdfPath))
}

// ConvertFile converts a single PDF, printing one status line to w. If the
// output already exists and opts.Force is unset it skips the file and
// returns ConversionNone.
func ConvertFile(ctx context.Context, c Converter, pdfPath string, opts Options, w io.Writer) types.ConversionStatus {
	name := filepath.Base(pdfPath)
	outPath := opts.outputPath(pdfPath)

	if !opts.Force {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", name)
			return types.ConversionNone
		}
	}

	if err := ValidateFile(pdfPath, opts.MaxSize); err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return types.ConversionFailed
	}

	res, err := c.Convert(ctx, pdfPath, outPath)
	if err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return types.ConversionFailed
	}

	note := ""
	if res.Format == types.FormatDocxRenamed {
		note = " (docx content, office converter unavailable)"
	}
	fmt.Fprintf(w, "converted: %s -> %s%s\n", name, res.OutputPath, note)
	return types.ConversionDone
}

// ConvertBatch processes pdfPaths in order, printing per-file status to w
// and returning a summary. Files not started before ctx is cancelled count
// as failed.
func ConvertBatch(ctx context.Context, c Converter, pdfPaths []string, opts Options, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		if ctx.Err() != nil {
			result.Failed++
			fmt.Fprintf(w, "failed:    %s (%v)\n", filepath.Base(p), ctx.Err())
			continue
		}
		switch ConvertFile(ctx, c, p, opts, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
