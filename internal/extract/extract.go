// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a PDF file into an ordered sequence of page records.
// Extraction runs an ordered chain of strategies and returns the first
// success; later strategies are fallbacks for documents the earlier ones
// cannot parse.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// Strategy extracts page records from a PDF. Different libraries (tabula,
// ledongthuc/pdf, MuPDF) implement this interface.
type Strategy interface {
	// Name identifies the strategy in logs and configuration.
	Name() string

	// Extract reads the PDF at pdfPath and returns one record per page.
	Extract(ctx context.Context, pdfPath string) ([]types.PageRecord, error)
}

// ErrExtraction is matched by errors.Is for any *ExtractionError.
var ErrExtraction = errors.New("extraction failed")

// StrategyFailure records why one strategy in the chain failed.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// ExtractionError is returned when every strategy in the chain failed.
type ExtractionError struct {
	Path     string
	Failures []StrategyFailure
}

func (e *ExtractionError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Strategy, f.Err)
	}
	return fmt.Sprintf("extracting %s: all strategies failed (%s)", e.Path, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrExtraction) hold.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// Unwrap exposes the per-strategy errors.
func (e *ExtractionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Result is the outcome of a successful chain run.
type Result struct {
	Pages    []types.PageRecord
	Strategy string
}

// Chain tries strategies in order.
type Chain struct {
	strategies []Strategy
	log        zerolog.Logger
}

// NewChain builds a chain over the given strategies, tried in argument order.
func NewChain(log zerolog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, log: log}
}

// Strategies returns the names of the configured strategies in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract runs each strategy until one returns a well-formed page sequence.
// A strategy that errors, panics, returns no pages, or numbers its pages out
// of sequence counts as a failure. When all fail, the returned error is an
// *ExtractionError. Context cancellation aborts the chain immediately.
func (c *Chain) Extract(ctx context.Context, pdfPath string) (Result, error) {
	if len(c.strategies) == 0 {
		return Result{}, &ExtractionError{
			Path:     pdfPath,
			Failures: []StrategyFailure{{Strategy: "chain", Err: errors.New("no strategies configured")}},
		}
	}

	var failures []StrategyFailure
	for i, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		pages, err := run(ctx, s, pdfPath)
		if err == nil {
			err = validateSequence(pages)
		}
		if err == nil {
			if i > 0 {
				c.log.Info().Str("strategy", s.Name()).Str("path", pdfPath).Int("pages", len(pages)).
					Msg("fallback extraction succeeded")
			}
			return Result{Pages: pages, Strategy: s.Name()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}

		failures = append(failures, StrategyFailure{Strategy: s.Name(), Err: err})
		evt := c.log.Warn()
		if i == len(c.strategies)-1 {
			evt = c.log.Error()
		}
		evt.Err(err).Str("strategy", s.Name()).Str("path", pdfPath).Msg("extraction strategy failed")
	}

	return Result{}, &ExtractionError{Path: pdfPath, Failures: failures}
}

// run calls s.Extract, turning a library panic into an error.
func run(ctx context.Context, s Strategy, pdfPath string) (pages []types.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Extract(ctx, pdfPath)
}

// validateSequence checks that pages are numbered 1..N without gaps.
func validateSequence(pages []types.PageRecord) error {
	if len(pages) == 0 {
		return errors.New("document has no pages")
	}
	for i, p := range pages {
		if p.Number != i+1 {
			return fmt.Errorf("page %d reported as number %d", i+1, p.Number)
		}
	}
	return nil
}

// FromNames resolves strategy names to implementations. Names are
// case-insensitive; unknown names are an error.
func FromNames(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case NameTabula:
			out = append(out, NewTabula())
		case NamePlainText:
			out = append(out, NewPlainText())
		case NameMuPDF:
			out = append(out, NewMuPDF())
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q (want %s, %s, or %s)",
				n, NameTabula, NamePlainText, NameMuPDF)
		}
	}
	return out, nil
}
