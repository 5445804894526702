package convert

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRegistryFirstMatchWins(t *testing.T) {
	a := newStubConverter("A", []string{"pdf"}, okBackend)
	b := newStubConverter("B", []string{"pdf", "txt"}, okBackend)
	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	pdf := writeFile(t, t.TempDir(), "doc.pdf", "x")
	got := reg.ConverterFor(pdf)
	if got == nil || got.Name() != "A" {
		t.Fatalf("expected A got %v", got)
	}

	txt := writeFile(t, t.TempDir(), "doc.txt", "x")
	got = reg.ConverterFor(txt)
	if got == nil || got.Name() != "B" {
		t.Fatalf("expected B got %v", got)
	}
}

func TestRegistryNoMatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newStubConverter("A", []string{"pdf"}, okBackend))
	if got := reg.ConverterFor(filepath.Join(t.TempDir(), "absent.pdf")); got != nil {
		t.Fatalf("expected nil got %v", got)
	}
}

func TestConvertersForFormat(t *testing.T) {
	a := newStubConverter("A", []string{"pdf"}, okBackend)
	b := newStubConverter("B", []string{"pdf", "txt"}, okBackend)
	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	got := reg.ConvertersForFormat(".PDF")
	if len(got) != 2 || got[0].Name() != "A" || got[1].Name() != "B" {
		t.Fatalf("unexpected converters %v", got)
	}
	if got := reg.ConvertersForFormat("docx"); len(got) != 0 {
		t.Fatalf("expected none got %v", got)
	}
}

func TestRegistryRestrict(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newStubConverter("A", []string{"pdf", "txt", "md"}, okBackend))
	reg.Restrict([]string{".PDF", "md"})

	want := []string{"md", "pdf"}
	if got := reg.SupportedFormats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if got := reg.ConvertersForFormat("txt"); len(got) != 0 {
		t.Fatalf("expected txt filtered out, got %v", got)
	}
	txt := writeFile(t, t.TempDir(), "doc.txt", "x")
	if got := reg.ConverterFor(txt); got != nil {
		t.Fatalf("expected nil for restricted format, got %v", got)
	}

	reg.Restrict(nil)
	if got := reg.ConvertersForFormat("txt"); len(got) != 1 {
		t.Fatalf("expected restriction cleared, got %v", got)
	}
}

func TestSupportedFormatsSortedDeduped(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newStubConverter("A", []string{"pdf"}, okBackend))
	reg.Register(newStubConverter("B", []string{"pdf", "txt"}, okBackend))
	want := []string{"pdf", "txt"}
	if got := reg.SupportedFormats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRegistryDispatchEndToEnd(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewPlainTextConverter())
	path := writeFile(t, t.TempDir(), "note.md", "# hello")
	c := reg.ConverterFor(path)
	if c == nil {
		t.Fatal("expected converter")
	}
	res := c.Convert(context.Background(), path, t.TempDir(), DefaultOptions())
	if !res.Success || res.MarkdownContent != "# hello" {
		t.Fatalf("unexpected result %+v", res)
	}
}
