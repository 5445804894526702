// Package errdefs defines the typed failure taxonomy shared by the
// conversion pipeline, the model manager, and the MCP surface.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an Error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConversion    Kind = "conversion"
	KindProcessing    Kind = "processing"
	KindConfiguration Kind = "configuration"
	KindFileSystem    Kind = "filesystem"
	KindNetwork       Kind = "network"
	KindServer        Kind = "server"
	KindMCP           Kind = "mcp"
)

// Canonical error codes carried on the wire and in logs.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeConversion    = "CONVERSION_ERROR"
	CodeProcessing    = "PROCESSING_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeFileSystem    = "FILESYSTEM_ERROR"
	CodeNetwork       = "NETWORK_ERROR"
	CodeServer        = "SERVER_ERROR"
	CodeMCP           = "MCP_ERROR"

	// CodeModelUnavailable marks conversion failures caused by the AI
	// backend being unreachable rather than by the document itself, so
	// dispatch can fall back to a non-AI converter.
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
)

// Error is a typed failure with a machine-readable code and optional context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Context map[string]any
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// With attaches a context key/value pair and returns the error.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

func newError(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, code string, cause error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, CodeValidation, format, args...)
}

func Conversion(format string, args ...any) *Error {
	return newError(KindConversion, CodeConversion, format, args...)
}

// WrapConversion keeps cause available to errors.Is/As while presenting message.
func WrapConversion(cause error, message string) *Error {
	return wrapError(KindConversion, CodeConversion, cause, message)
}

// Unavailable is a conversion failure caused by the backend, not the input.
func Unavailable(format string, args ...any) *Error {
	return newError(KindConversion, CodeModelUnavailable, format, args...)
}

func WrapUnavailable(cause error, message string) *Error {
	return wrapError(KindConversion, CodeModelUnavailable, cause, message)
}

func Processing(format string, args ...any) *Error {
	return newError(KindProcessing, CodeProcessing, format, args...)
}

func WrapProcessing(cause error, message string) *Error {
	return wrapError(KindProcessing, CodeProcessing, cause, message)
}

func Configuration(format string, args ...any) *Error {
	return newError(KindConfiguration, CodeConfiguration, format, args...)
}

func FileSystem(format string, args ...any) *Error {
	return newError(KindFileSystem, CodeFileSystem, format, args...)
}

func Network(format string, args ...any) *Error {
	return newError(KindNetwork, CodeNetwork, format, args...)
}

func Server(format string, args ...any) *Error {
	return newError(KindServer, CodeServer, format, args...)
}

func MCP(format string, args ...any) *Error {
	return newError(KindMCP, CodeMCP, format, args...)
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsValidation(err error) bool { return isKind(err, KindValidation) }
func IsConversion(err error) bool { return isKind(err, KindConversion) }
func IsProcessing(err error) bool { return isKind(err, KindProcessing) }

// IsTyped reports whether err belongs to the taxonomy at all.
func IsTyped(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// CodeOf returns the canonical code of a typed error, or "" for any other
// error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
