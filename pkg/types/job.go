// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// JobState is a step of the per-job conversion state machine.
type JobState string

const (
	StateExtracting JobState = "extracting"
	StateRendering  JobState = "rendering"
	StateConverting JobState = "converting"
	StateDone       JobState = "done"
	StateFailed     JobState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// ConversionStatus reports the outcome of one file in a batch.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// OutputFormat identifies the file format actually written for a job.
type OutputFormat string

const (
	// FormatDoc is the legacy binary format produced by the office converter.
	FormatDoc OutputFormat = "doc"

	// FormatDocxRenamed is the degraded fallback: docx bytes under a .doc name.
	FormatDocxRenamed OutputFormat = "docx-as-doc"
)

// ConversionJob describes a single PDF-to-DOC conversion. It is created per
// request and discarded once the output is produced or the attempt fails.
type ConversionJob struct {
	// ID uniquely identifies the job in logs.
	ID string `json:"id" yaml:"id"`

	// InputPath is the PDF to convert.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPath is where the final document is written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// WorkDir is a private scratch directory removed when the job ends.
	WorkDir string `json:"-" yaml:"-"`

	// State is the current state machine step.
	State JobState `json:"state" yaml:"state"`
}

// ConversionResult is returned for a successful job.
type ConversionResult struct {
	JobID      string       `json:"job_id" yaml:"job_id"`
	OutputPath string       `json:"output_path" yaml:"output_path"`
	Format     OutputFormat `json:"format" yaml:"format"`
	Pages      int          `json:"pages" yaml:"pages"`
	Tables     int          `json:"tables" yaml:"tables"`
	Strategy   string       `json:"strategy" yaml:"strategy"`
	Bytes      int64        `json:"bytes" yaml:"bytes"`
}
