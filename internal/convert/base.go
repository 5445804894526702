package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaspardpetit/echoflow/internal/errdefs"
	"github.com/gaspardpetit/echoflow/internal/logx"
)

// DefaultTimeout applies when options carry no positive timeout.
const DefaultTimeout = 300 * time.Second

// Converter is the capability every document converter exposes. Convert
// never returns an error; failures are encoded in the Result.
type Converter interface {
	Name() string
	SupportedFormats() []string
	CanConvert(path string) bool
	Convert(ctx context.Context, path, outputDir string, opts Options) Result
}

// Backend is the format-specific step a concrete converter implements. It
// runs under the pipeline's timeout and may return typed errdefs errors;
// anything else is wrapped as an unexpected failure.
type Backend interface {
	ConvertDocument(ctx context.Context, path, outputDir string, opts Options) (Result, error)
}

// Base provides the uniform validate/timeout/error-wrapping pipeline shared
// by all converters. Concrete converters embed it and supply the Backend.
type Base struct {
	name    string
	formats []string
	backend Backend
}

// NewBase builds the shared pipeline for a named converter. Formats are
// normalized to lowercase extensions without a leading dot.
func NewBase(name string, formats []string, backend Backend) *Base {
	norm := make([]string, 0, len(formats))
	for _, f := range formats {
		norm = append(norm, strings.ToLower(strings.TrimPrefix(f, ".")))
	}
	return &Base{name: name, formats: norm, backend: backend}
}

func (b *Base) Name() string { return b.name }

// SupportedFormats returns a copy of the converter's extension list.
func (b *Base) SupportedFormats() []string {
	out := make([]string, len(b.formats))
	copy(out, b.formats)
	return out
}

// CanConvert reports whether path exists and carries a supported extension.
func (b *Base) CanConvert(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return b.supportsExt(extOf(path))
}

func (b *Base) supportsExt(ext string) bool {
	for _, f := range b.formats {
		if f == ext {
			return true
		}
	}
	return false
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (b *Base) validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errdefs.Validation("File does not exist: %s", path)
	}
	if !info.Mode().IsRegular() {
		return errdefs.Validation("Path is not a file: %s", path)
	}
	if !b.supportsExt(extOf(path)) {
		return errdefs.Validation("Unsupported file format: %s", filepath.Ext(path))
	}
	if info.Size() > MaxFileSize {
		return errdefs.Validation("File too large: %d bytes (max: %d)", info.Size(), int64(MaxFileSize))
	}
	return nil
}

// MaxFileSize is the hard input ceiling enforced before any backend runs.
const MaxFileSize = 100 * 1024 * 1024

// Convert runs the full pipeline: validation, output directory creation,
// the backend under a wall-clock timeout, and result annotation. The backend
// runs on its own goroutine so a stuck engine call never stalls the caller;
// on timeout its eventual result is discarded.
func (b *Base) Convert(ctx context.Context, path, outputDir string, opts Options) Result {
	start := time.Now()

	if err := b.validate(path); err != nil {
		logx.Log.Warn().Str("converter", b.name).Str("path", path).Err(err).Msg("validation failed")
		res := failure(b.name, err.Error(), time.Since(start))
		res.ErrorCode = errdefs.CodeOf(err)
		return res
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return failure(b.name, fmt.Sprintf("Unexpected error during conversion: %v", err), time.Since(start))
	}

	timeout := opts.Timeout(DefaultTimeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errdefs.Conversion("converter panic: %v", r)}
			}
		}()
		res, err := b.backend.ConvertDocument(runCtx, path, outputDir, opts)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			res := failure(b.name, wrapMessage(out.err), time.Since(start))
			res.ErrorCode = errdefs.CodeOf(out.err)
			return res
		}
		out.res.ProcessingTimeSeconds = time.Since(start).Seconds()
		out.res.ConverterUsed = b.name
		return out.res
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return failure(b.name, wrapMessage(ctx.Err()), time.Since(start))
		}
		msg := fmt.Sprintf("Conversion timed out after %d seconds", int(timeout.Seconds()))
		logx.Log.Warn().Str("converter", b.name).Str("path", path).Msg(msg)
		return failure(b.name, msg, time.Since(start))
	}
}

func wrapMessage(err error) string {
	if errdefs.IsTyped(err) {
		return err.Error()
	}
	return fmt.Sprintf("Unexpected error during conversion: %v", err)
}
