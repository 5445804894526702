package convert

import (
	"context"
	"os"
	"strings"

	"github.com/gaspardpetit/echoflow/internal/errdefs"
)

// PlainTextConverter handles txt and md inputs by passing their content
// through unchanged. It is registered behind the AI converter so it only
// serves requests when no AI backend is available.
type PlainTextConverter struct {
	*Base
}

func NewPlainTextConverter() *PlainTextConverter {
	c := &PlainTextConverter{}
	c.Base = NewBase("PlainText", []string{"txt", "md"}, c)
	return c
}

func (c *PlainTextConverter) ConvertDocument(ctx context.Context, path, outputDir string, opts Options) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errdefs.WrapConversion(err, "failed to read document: "+err.Error())
	}
	content := string(b)
	if strings.TrimSpace(content) == "" {
		content = "# Document Converted\n\nNo readable content found."
	}
	words := len(strings.Fields(content))
	chars := len(content)
	return Result{
		Success:         true,
		MarkdownContent: content,
		Metadata: Metadata{
			WordCount:      &words,
			CharacterCount: &chars,
		},
	}, nil
}
