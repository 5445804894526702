// Package docling wraps the external AI document-understanding backend: the
// engine interface and HTTP client, the model lifecycle manager, and the
// DoclingAI converter built on top of them.
package docling

import "context"

// Engine is the AI document-understanding backend. Construction is slow and
// may download models; Convert is a blocking call.
type Engine interface {
	// Convert parses the document at path and returns its decoded result.
	Convert(ctx context.Context, path string) (*Document, error)
	// Ping performs a lightweight responsiveness check.
	Ping(ctx context.Context) error
}

// Document is the engine result, decoded once at the boundary. Nil pointer
// fields mean the engine did not report that attribute.
type Document struct {
	// Markdown is the rendered markdown content; may be empty.
	Markdown string
	// ExportError carries the engine's markdown-rendering failure when the
	// document itself parsed. It degrades the content to a placeholder
	// without failing the conversion.
	ExportError string

	Metadata *DocumentMetadata
	Pages    int
	Images   []ImageRef
	Links    []LinkRef
}

// DocumentMetadata holds the optional document properties the engine reports.
// Timestamps are opaque strings; no timezone normalization is guaranteed.
type DocumentMetadata struct {
	Title            *string
	Author           *string
	Subject          *string
	CreationDate     *string
	ModificationDate *string
}

// ImageRef describes one image the engine located.
type ImageRef struct {
	PageNumber *int
	Width      *int
	Height     *int
	SizeBytes  *int64
	Position   map[string]float64
}

// LinkRef is one hyperlink the engine located.
type LinkRef struct {
	Text       string
	URL        string
	PageNumber *int
}
