// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office drives a headless office suite (LibreOffice) to convert
// .docx files into the legacy .doc format. The suite is optional: callers
// probe for it and fall back when it is missing or fails.
package office

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	binLibreOffice = "libreoffice"
	binSoffice     = "soffice"

	// DefaultTimeout bounds one conversion when the caller sets none.
	DefaultTimeout = 60 * time.Second

	// profileDir is the per-job LibreOffice user profile, created inside the
	// output directory so concurrent conversions never share one.
	profileDir = ".lo-profile"
)

// DefaultBinaries lists converter executables in preference order.
var DefaultBinaries = []string{binLibreOffice, binSoffice}

// ErrUnavailable is returned when no converter binary can be found.
var ErrUnavailable = errors.New("office converter unavailable")

// Converter turns a .docx file into a .doc file.
type Converter interface {
	// Name returns the converter binary name ("libreoffice" or "soffice").
	Name() string

	// Available reports whether the binary exists on PATH.
	Available() bool

	// ConvertToDoc converts srcPath and writes <base>.doc into outDir,
	// returning the produced path. A non-zero exit, a timeout, or a missing
	// or empty output file is an error.
	ConvertToDoc(ctx context.Context, srcPath, outDir string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// soffice forks a child that can hold the output pipes open after the
	// parent is killed.
	cmd.WaitDelay = 5 * time.Second
	return cmd.CombinedOutput()
}

// suite implements Converter for one office binary. LibreOffice installs
// both names; they accept the same arguments.
type suite struct {
	bin     string
	timeout time.Duration
	exec    executor
}

func (s *suite) Name() string { return s.bin }

func (s *suite) Available() bool {
	_, err := s.exec.LookPath(s.bin)
	return err == nil
}

func (s *suite) ConvertToDoc(ctx context.Context, srcPath, outDir string) (string, error) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args, err := convertArgs(srcPath, outDir)
	if err != nil {
		return "", err
	}

	out, err := s.exec.Run(ctx, s.bin, args...)
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return "", fmt.Errorf("%s timed out after %v converting %s", s.bin, timeout, srcPath)
	}
	if err != nil {
		return "", fmt.Errorf("running %s on %s: %w%s", s.bin, srcPath, err, outputSuffix(out))
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	docPath := filepath.Join(outDir, base+".doc")
	info, err := os.Stat(docPath)
	if err != nil {
		return "", fmt.Errorf("%s reported success but %s is missing%s", s.bin, docPath, outputSuffix(out))
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%s produced an empty %s", s.bin, docPath)
	}
	return docPath, nil
}

// convertArgs builds the headless conversion command line. The profile
// directory is isolated per output directory.
func convertArgs(srcPath, outDir string) ([]string, error) {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", outDir, err)
	}
	profile := "file://" + filepath.ToSlash(filepath.Join(absOut, profileDir))
	return []string{
		"-env:UserInstallation=" + profile,
		"--headless",
		"--convert-to", "doc",
		"--outdir", outDir,
		srcPath,
	}, nil
}

func outputSuffix(out []byte) string {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return ""
	}
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return ": " + msg
}

func newSuite(bin string, timeout time.Duration, exec executor) *suite {
	return &suite{bin: bin, timeout: timeout, exec: exec}
}

var defaultExec = &osExecutor{}

// Detect returns the first available converter among binaries (or
// DefaultBinaries when empty). It returns ErrUnavailable when none is found.
func Detect(binaries []string, timeout time.Duration) (Converter, error) {
	return detect(defaultExec, binaries, timeout)
}

func detect(exec executor, binaries []string, timeout time.Duration) (Converter, error) {
	if len(binaries) == 0 {
		binaries = DefaultBinaries
	}
	for _, bin := range binaries {
		s := newSuite(bin, timeout, exec)
		if s.Available() {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: none of %s found on PATH", ErrUnavailable, strings.Join(binaries, ", "))
}
