package errdefs

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindsAndCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
		code string
	}{
		{Validation("bad input"), KindValidation, CodeValidation},
		{Conversion("engine failed"), KindConversion, CodeConversion},
		{Processing("verify failed"), KindProcessing, CodeProcessing},
		{Configuration("missing key"), KindConfiguration, CodeConfiguration},
		{FileSystem("no temp dir"), KindFileSystem, CodeFileSystem},
		{Network("unreachable"), KindNetwork, CodeNetwork},
		{Server("startup failed"), KindServer, CodeServer},
		{MCP("unknown tool"), KindMCP, CodeMCP},
		{Unavailable("backend down"), KindConversion, CodeModelUnavailable},
	}
	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("expected kind %q got %q", tt.kind, tt.err.Kind)
		}
		if tt.err.Code != tt.code {
			t.Errorf("expected code %q got %q", tt.code, tt.err.Code)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !IsValidation(Validation("x")) {
		t.Fatal("expected IsValidation true")
	}
	if IsValidation(Conversion("x")) {
		t.Fatal("expected IsValidation false for conversion error")
	}
	wrapped := fmt.Errorf("outer: %w", Conversion("inner"))
	if !IsConversion(wrapped) {
		t.Fatal("expected IsConversion through wrapping")
	}
	if IsTyped(io.EOF) {
		t.Fatal("expected plain error to be untyped")
	}
}

func TestUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := WrapConversion(cause, "backend read failed")
	if !errors.Is(err, cause) {
		t.Fatal("expected cause via errors.Is")
	}
	if err.Error() != "backend read failed" {
		t.Fatalf("expected wrapped message got %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(WrapUnavailable(io.EOF, "down")); got != CodeModelUnavailable {
		t.Fatalf("expected %s got %q", CodeModelUnavailable, got)
	}
	if got := CodeOf(fmt.Errorf("outer: %w", Validation("bad"))); got != CodeValidation {
		t.Fatalf("expected %s got %q", CodeValidation, got)
	}
	if got := CodeOf(io.EOF); got != "" {
		t.Fatalf("expected empty code got %q", got)
	}
}

func TestWith(t *testing.T) {
	err := Validation("too large").With("size", 101).With("path", "/a/b")
	if err.Context["size"] != 101 || err.Context["path"] != "/a/b" {
		t.Fatalf("unexpected context %v", err.Context)
	}
}
