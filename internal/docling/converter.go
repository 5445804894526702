package docling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/errdefs"
	"github.com/gaspardpetit/echoflow/internal/logx"
)

// ConverterName tags results produced by the AI converter.
const ConverterName = "DoclingAI"

var supportedFormats = []string{"pdf", "docx", "pptx", "html", "txt", "md"}

// Converter is the AI-powered document converter. The heavy lifting is
// delegated to the engine held by the model manager; this type normalizes
// the engine output into the uniform result shape. Auxiliary extraction
// (metadata, images, hyperlinks) is best-effort and never fails the
// conversion; only the primary content path and resource acquisition can.
type Converter struct {
	*convert.Base
	manager *ModelManager
}

func NewConverter(manager *ModelManager) *Converter {
	c := &Converter{manager: manager}
	c.Base = convert.NewBase(ConverterName, supportedFormats, c)
	return c
}

// Manager exposes the underlying model manager for health probes.
func (c *Converter) Manager() *ModelManager { return c.manager }

func (c *Converter) ConvertDocument(ctx context.Context, path, outputDir string, opts convert.Options) (convert.Result, error) {
	engine, err := c.manager.Engine(ctx)
	if err != nil {
		return convert.Result{}, err
	}

	logx.Log.Info().Str("path", path).Str("correlation_id", logx.CorrelationID(ctx)).Msg("starting AI document conversion")
	doc, err := engine.Convert(ctx, path)
	if err != nil {
		if errdefs.IsTyped(err) {
			return convert.Result{}, err
		}
		return convert.Result{}, errdefs.WrapConversion(err, "AI document conversion failed: "+err.Error())
	}

	markdown := extractMarkdown(doc)
	meta := extractMetadata(doc)
	images, imageWarnings := extractImages(doc, outputDir, opts)
	links, linkWarnings := extractHyperlinks(doc)

	res := convert.Result{
		Success:         true,
		MarkdownContent: markdown,
		Metadata:        meta,
		ExtractedImages: images,
		Hyperlinks:      links,
		Warnings:        append(imageWarnings, linkWarnings...),
	}
	logx.Log.Info().
		Int("content_length", len(markdown)).
		Int("images", len(images)).
		Int("hyperlinks", len(links)).
		Msg("AI document conversion completed")
	return res, nil
}

// extractMarkdown normalizes the engine's content. Its two degenerate
// outputs are placeholders, not failures: empty content and a rendering
// error reported alongside a parsed document.
func extractMarkdown(doc *Document) string {
	if doc.ExportError != "" {
		logx.Log.Error().Str("error", doc.ExportError).Msg("failed to extract markdown")
		return fmt.Sprintf("# Conversion Error\n\nFailed to extract content: %s", doc.ExportError)
	}
	if strings.TrimSpace(doc.Markdown) == "" {
		logx.Log.Warn().Msg("empty markdown content extracted")
		return "# Document Converted\n\nNo readable content found."
	}
	return doc.Markdown
}

func extractMetadata(doc *Document) convert.Metadata {
	var meta convert.Metadata
	if doc.Metadata != nil {
		meta.Title = doc.Metadata.Title
		meta.Author = doc.Metadata.Author
		meta.Subject = doc.Metadata.Subject
		meta.CreationDate = doc.Metadata.CreationDate
		meta.ModificationDate = doc.Metadata.ModificationDate
	}
	if doc.Pages > 0 {
		pages := doc.Pages
		meta.PageCount = &pages
	}
	return meta
}

// extractImages emits one descriptor per image the engine reported. Images
// are disabled entirely by options; per-image problems skip that image and
// a directory failure degrades to an empty list. Only descriptors are
// written, not image bytes: the engine reports locations, not payloads.
func extractImages(doc *Document, outputDir string, opts convert.Options) ([]convert.ExtractedImage, []string) {
	if !opts.ExtractImages {
		return nil, nil
	}
	if len(doc.Images) == 0 {
		return nil, nil
	}

	imagesDir := filepath.Join(outputDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		logx.Log.Warn().Err(err).Msg("image extraction failed")
		return nil, []string{"image extraction failed: " + err.Error()}
	}

	format := opts.ImageFormat
	if format == "" {
		format = "png"
	}
	out := make([]convert.ExtractedImage, 0, len(doc.Images))
	var warnings []string
	for i, img := range doc.Images {
		if img.SizeBytes != nil && opts.MaxImageSize > 0 && *img.SizeBytes > opts.MaxImageSize {
			warnings = append(warnings, fmt.Sprintf("skipped image %d: exceeds max image size", i+1))
			continue
		}
		filename := fmt.Sprintf("image_%d.%s", i+1, format)
		out = append(out, convert.ExtractedImage{
			Filename:   filename,
			Path:       filepath.Join("images", filename),
			Format:     format,
			Width:      img.Width,
			Height:     img.Height,
			SizeBytes:  img.SizeBytes,
			PageNumber: img.PageNumber,
			Position:   img.Position,
		})
	}
	return out, warnings
}

// extractHyperlinks is best-effort: malformed links are skipped, never
// failing the conversion.
func extractHyperlinks(doc *Document) ([]convert.Hyperlink, []string) {
	if len(doc.Links) == 0 {
		return nil, nil
	}
	out := make([]convert.Hyperlink, 0, len(doc.Links))
	var warnings []string
	for i, link := range doc.Links {
		if link.URL == "" {
			warnings = append(warnings, fmt.Sprintf("skipped hyperlink %d: no url", i+1))
			continue
		}
		out = append(out, convert.Hyperlink{Text: link.Text, URL: link.URL, PageNumber: link.PageNumber})
	}
	return out, warnings
}
