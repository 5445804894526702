package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gaspardpetit/echoflow/internal/errdefs"
)

type stubBackend struct {
	fn func(ctx context.Context, path, outputDir string, opts Options) (Result, error)
}

func (s *stubBackend) ConvertDocument(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
	return s.fn(ctx, path, outputDir, opts)
}

func newStubConverter(name string, formats []string, fn func(ctx context.Context, path, outputDir string, opts Options) (Result, error)) Converter {
	b := &stubBackend{fn: fn}
	return NewBase(name, formats, b)
}

func okBackend(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
	return Result{Success: true, MarkdownContent: "# ok"}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertMissingFile(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, okBackend)
	res := c.Convert(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), t.TempDir(), DefaultOptions())
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.ErrorMessage, "File does not exist") {
		t.Fatalf("unexpected message %q", res.ErrorMessage)
	}
	if res.ProcessingTimeSeconds < 0 {
		t.Fatalf("negative processing time %v", res.ProcessingTimeSeconds)
	}
	if res.ConverterUsed != "Stub" {
		t.Fatalf("expected converter tag got %q", res.ConverterUsed)
	}
	if res.MarkdownContent != "" {
		t.Fatalf("failed result must carry no content, got %q", res.MarkdownContent)
	}
}

func TestConvertDirectoryInput(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, okBackend)
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested.txt")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	res := c.Convert(context.Background(), sub, t.TempDir(), DefaultOptions())
	if res.Success || !strings.Contains(res.ErrorMessage, "Path is not a file") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestConvertUnsupportedFormat(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, okBackend)
	path := writeFile(t, t.TempDir(), "doc.xyz", "data")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if res.Success || !strings.Contains(res.ErrorMessage, "Unsupported file format") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestConvertTimeout(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	opts := DefaultOptions()
	opts.TimeoutSeconds = 1
	res := c.Convert(context.Background(), path, t.TempDir(), opts)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrorMessage != "Conversion timed out after 1 seconds" {
		t.Fatalf("unexpected message %q", res.ErrorMessage)
	}
}

func TestConvertTypedErrorVerbatim(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		return Result{}, errdefs.Conversion("AI document conversion failed: model offline")
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if res.ErrorMessage != "AI document conversion failed: model offline" {
		t.Fatalf("typed error must pass verbatim, got %q", res.ErrorMessage)
	}
}

func TestConvertCarriesErrorCode(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		return Result{}, errdefs.WrapUnavailable(errors.New("backend down"), "AI model initialization failed: backend down")
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "x")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrorCode != errdefs.CodeModelUnavailable {
		t.Fatalf("expected %s got %q", errdefs.CodeModelUnavailable, res.ErrorCode)
	}
	if res.ErrorMessage != "AI model initialization failed: backend down" {
		t.Fatalf("unexpected message %q", res.ErrorMessage)
	}
}

func TestConvertUnexpectedErrorWrapped(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		return Result{}, errors.New("boom")
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if res.ErrorMessage != "Unexpected error during conversion: boom" {
		t.Fatalf("unexpected message %q", res.ErrorMessage)
	}
}

func TestConvertPanicContained(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		panic("engine blew up")
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if res.Success || !strings.Contains(res.ErrorMessage, "engine blew up") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestConvertAnnotatesSuccess(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, func(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
		time.Sleep(10 * time.Millisecond)
		return Result{Success: true, MarkdownContent: "# ok"}, nil
	})
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.ErrorMessage)
	}
	if res.ConverterUsed != "Stub" {
		t.Fatalf("expected converter tag got %q", res.ConverterUsed)
	}
	if res.ProcessingTimeSeconds <= 0 {
		t.Fatalf("expected positive processing time got %v", res.ProcessingTimeSeconds)
	}
	if res.ErrorMessage != "" {
		t.Fatalf("success result must carry no error, got %q", res.ErrorMessage)
	}
}

func TestConvertCreatesOutputDir(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt"}, okBackend)
	path := writeFile(t, t.TempDir(), "doc.txt", "data")
	outDir := filepath.Join(t.TempDir(), "a", "b", "out")
	if res := c.Convert(context.Background(), path, outDir, DefaultOptions()); !res.Success {
		t.Fatalf("unexpected failure: %q", res.ErrorMessage)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
}

func TestCanConvert(t *testing.T) {
	c := newStubConverter("Stub", []string{"txt", "MD"}, okBackend)
	dir := t.TempDir()
	txt := writeFile(t, dir, "a.TXT", "x")
	md := writeFile(t, dir, "b.md", "x")
	bin := writeFile(t, dir, "c.bin", "x")
	if !c.CanConvert(txt) || !c.CanConvert(md) {
		t.Fatal("expected case-insensitive extension match")
	}
	if c.CanConvert(bin) {
		t.Fatal("expected unsupported extension rejected")
	}
	if c.CanConvert(filepath.Join(dir, "missing.txt")) {
		t.Fatal("expected missing file rejected")
	}
}
