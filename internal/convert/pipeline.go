// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2doc/internal/extract"
	"github.com/pdiddy/pdf2doc/internal/office"
	"github.com/pdiddy/pdf2doc/internal/render"
	"github.com/pdiddy/pdf2doc/internal/stats"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

var (
	// ErrEmptyContent is returned when extraction succeeds but no page has
	// text or tables.
	ErrEmptyContent = errors.New("no text content could be extracted")

	// ErrRender is returned when the intermediate document cannot be built.
	ErrRender = errors.New("rendering failed")
)

// Extractor produces page records for a PDF. *extract.Chain implements it.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) (extract.Result, error)
}

// ConverterSource yields the current office converter, or an error when
// none is available. *office.Prober implements it.
type ConverterSource interface {
	Converter() (office.Converter, error)
}

// Pipeline runs extract, render, and the optional legacy conversion for one
// PDF at a time. It holds no per-job state and is safe for concurrent use.
type Pipeline struct {
	extractor  Extractor
	converters ConverterSource
	recorder   stats.Recorder
	log        zerolog.Logger
	title      string
	newID      func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConverters enables conversion to the legacy .doc format. Without it
// every job takes the rename fallback.
func WithConverters(src ConverterSource) Option {
	return func(p *Pipeline) { p.converters = src }
}

// WithRecorder reports finished jobs to r.
func WithRecorder(r stats.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the pipeline logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithTitle overrides the document title.
func WithTitle(title string) Option {
	return func(p *Pipeline) { p.title = title }
}

// NewPipeline creates a pipeline around ex.
func NewPipeline(ex Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: ex,
		recorder:  stats.Nop{},
		log:       zerolog.Nop(),
		title:     render.DefaultTitle,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert turns the PDF at inputPath into a document at outputPath. The
// output path is written only when the job succeeds; scratch files live in
// a private directory next to it and are removed on every path. The user
// charged in statistics is taken from ctx (see stats.WithUser).
func (p *Pipeline) Convert(ctx context.Context, inputPath, outputPath string) (types.ConversionResult, error) {
	job := &types.ConversionJob{
		ID:         p.newID(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		State:      types.StateExtracting,
	}
	log := p.log.With().Str("job", job.ID).Str("input", inputPath).Logger()

	event := stats.Event{User: stats.UserFrom(ctx)}
	if info, err := os.Stat(inputPath); err == nil {
		event.InputBytes = info.Size()
	}

	res, err := p.run(ctx, job, log)
	if err != nil {
		job.State = types.StateFailed
		event.Failed = true
		p.recorder.Record(event)
		log.Error().Err(err).Str("state", string(job.State)).Msg("conversion failed")
		return types.ConversionResult{}, err
	}

	event.OutputBytes = res.Bytes
	event.Pages = res.Pages
	event.Degraded = res.Format == types.FormatDocxRenamed
	p.recorder.Record(event)
	log.Info().
		Str("output", res.OutputPath).
		Str("format", string(res.Format)).
		Str("strategy", res.Strategy).
		Int("pages", res.Pages).
		Int64("bytes", res.Bytes).
		Msg("conversion done")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, job *types.ConversionJob, log zerolog.Logger) (types.ConversionResult, error) {
	outDir := filepath.Dir(job.OutputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.ConversionResult{}, fmt.Errorf("creating output directory: %w", err)
	}
	workDir, err := os.MkdirTemp(outDir, ".pdf2doc-*")
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("creating work directory: %w", err)
	}
	job.WorkDir = workDir
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn().Err(err).Str("dir", workDir).Msg("removing work directory")
		}
	}()

	// Extracting.
	extracted, err := p.extractor.Extract(ctx, job.InputPath)
	if err != nil {
		return types.ConversionResult{}, err
	}
	if !types.AnyContent(extracted.Pages) {
		return types.ConversionResult{}, ErrEmptyContent
	}

	// Rendering.
	job.State = types.StateRendering
	base := strings.TrimSuffix(filepath.Base(job.OutputPath), filepath.Ext(job.OutputPath))
	intermediate := filepath.Join(workDir, base+".docx")
	if err := p.renderFile(intermediate, extracted.Pages); err != nil {
		return types.ConversionResult{}, err
	}

	// Converting.
	final, format := intermediate, types.FormatDocxRenamed
	if p.converters != nil {
		job.State = types.StateConverting
		if docPath, ok := p.toLegacy(ctx, intermediate, workDir, log); ok {
			final, format = docPath, types.FormatDoc
		}
		if err := ctx.Err(); err != nil {
			return types.ConversionResult{}, err
		}
	}

	info, err := os.Stat(final)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("checking %s: %w", final, err)
	}
	if err := os.Rename(final, job.OutputPath); err != nil {
		return types.ConversionResult{}, fmt.Errorf("writing %s: %w", job.OutputPath, err)
	}
	job.State = types.StateDone

	tables := 0
	for _, pg := range extracted.Pages {
		tables += len(pg.Tables)
	}
	return types.ConversionResult{
		JobID:      job.ID,
		OutputPath: job.OutputPath,
		Format:     format,
		Pages:      len(extracted.Pages),
		Tables:     tables,
		Strategy:   extracted.Strategy,
		Bytes:      info.Size(),
	}, nil
}

func (p *Pipeline) renderFile(path string, pages []types.PageRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrRender, path, err)
	}
	defer f.Close()

	if err := render.Render(f, p.title, pages); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrRender, path, err)
	}
	return nil
}

// toLegacy runs the office converter on the intermediate file. Any failure
// is logged and reported as !ok so the caller keeps the docx.
func (p *Pipeline) toLegacy(ctx context.Context, intermediate, workDir string, log zerolog.Logger) (string, bool) {
	conv, err := p.converters.Converter()
	if err != nil {
		log.Warn().Err(err).Msg("office converter unavailable, keeping docx under .doc name")
		return "", false
	}
	docPath, err := conv.ConvertToDoc(ctx, intermediate, workDir)
	if err != nil {
		log.Warn().Err(err).Str("converter", conv.Name()).Msg("office conversion failed, keeping docx under .doc name")
		return "", false
	}
	return docPath, true
}
