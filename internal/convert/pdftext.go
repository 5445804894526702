package convert

import (
	"context"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gaspardpetit/echoflow/internal/errdefs"
)

// PDFTextConverter extracts plain text from PDFs without any AI backend. It
// is the last-resort fallback when the DoclingAI converter is not registered
// or a request reaches it first by registration order.
type PDFTextConverter struct {
	*Base
}

func NewPDFTextConverter() *PDFTextConverter {
	c := &PDFTextConverter{}
	c.Base = NewBase("PDFText", []string{"pdf"}, c)
	return c
}

func (c *PDFTextConverter) ConvertDocument(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, errdefs.WrapConversion(err, "failed to open PDF: "+err.Error())
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	var warnings []string
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail extraction are skipped; partial text is success.
			warnings = append(warnings, "failed to extract text from page "+strconv.Itoa(i))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		content = "# Document Converted\n\nNo readable content found."
	}
	chars := len(content)
	return Result{
		Success:         true,
		MarkdownContent: content,
		Metadata: Metadata{
			PageCount:      &pages,
			CharacterCount: &chars,
		},
		Warnings: warnings,
	}, nil
}

