package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/errdefs"
	"github.com/gaspardpetit/echoflow/internal/logx"
	"github.com/gaspardpetit/echoflow/internal/metrics"
)

func (s *Server) handleConvertDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cid := logx.WithCorrelationID(ctx, "")
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("file_path is required"), nil
	}
	outputDir := req.GetString("output_dir", "./output")
	opts := s.optionsFromRequest(req)

	logx.Log.Info().Str("tool", "convert_document").Str("file_path", filePath).Str("correlation_id", cid).Msg("calling MCP tool")

	res, outputFile := s.convertOne(ctx, filePath, outputDir, opts)
	return jsonResult(struct {
		convert.Result
		OutputFile string `json:"output_file,omitempty"`
	}{Result: res, OutputFile: outputFile})
}

func (s *Server) optionsFromRequest(req mcp.CallToolRequest) convert.Options {
	opts := convert.DefaultOptions()
	opts.ExtractImages = req.GetBool("extract_images", true)
	opts.ExtractMetadata = req.GetBool("preserve_metadata", true)
	opts.TimeoutSeconds = req.GetInt("timeout_seconds", int(s.cfg.DefaultTimeout/time.Second))
	return opts
}

// convertOne dispatches the file through the registry, consulting the
// result cache when one is configured, and writes the markdown output next
// to any extracted assets. Converters are tried in registration order; a
// MODEL_UNAVAILABLE failure falls through to the next one so a dead AI
// backend never shadows a native fallback. It never returns an error:
// failures are encoded in the result.
func (s *Server) convertOne(ctx context.Context, filePath, outputDir string, opts convert.Options) (convert.Result, string) {
	converters := s.registry.ConvertersForFormat(filepath.Ext(filePath))
	if len(converters) == 0 {
		if _, err := os.Stat(filePath); err != nil {
			return failedResult("File does not exist: " + filePath), ""
		}
		return failedResult("Unsupported file format: " + filepath.Ext(filePath)), ""
	}

	if s.cache != nil {
		if res, ok := s.cache.Get(ctx, filePath, opts); ok {
			logx.Log.Debug().Str("file_path", filePath).Msg("result cache hit")
			return res, writeMarkdown(&res, filePath, outputDir)
		}
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	var res convert.Result
	for _, converter := range converters {
		metrics.RecordStart()
		start := time.Now()
		res = converter.Convert(ctx, filePath, outputDir, opts)
		metrics.RecordComplete(res.ConverterUsed, format, res.Success, len(res.ExtractedImages), time.Since(start))
		if res.Success || res.ErrorCode != errdefs.CodeModelUnavailable {
			break
		}
		logx.Log.Warn().Str("converter", converter.Name()).Str("file_path", filePath).Msg("converter backend unavailable, trying next")
	}

	var outputFile string
	if res.Success {
		outputFile = writeMarkdown(&res, filePath, outputDir)
		if s.cache != nil {
			s.cache.Put(ctx, filePath, opts, res)
		}
	}
	return res, outputFile
}

// writeMarkdown materializes the markdown next to the other outputs. A
// write failure degrades to a warning on the result, not a conversion
// failure.
func writeMarkdown(res *convert.Result, filePath, outputDir string) string {
	outputFile := markdownOutputPath(filePath, outputDir)
	err := os.MkdirAll(outputDir, 0o755)
	if err == nil {
		err = os.WriteFile(outputFile, []byte(res.MarkdownContent), 0o644)
	}
	if err != nil {
		logx.Log.Warn().Err(err).Str("output_file", outputFile).Msg("failed to write markdown output")
		res.Warnings = append(res.Warnings, "failed to write markdown output: "+err.Error())
		return ""
	}
	return outputFile
}

func markdownOutputPath(filePath, outputDir string) string {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+".md")
}

func failedResult(message string) convert.Result {
	return convert.Result{Success: false, ErrorMessage: message}
}

func (s *Server) handleListSupportedFormats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formats := s.registry.SupportedFormats()
	capabilities := make(map[string]map[string]bool, len(formats))
	for _, f := range formats {
		capabilities[f] = formatCapabilities(f)
	}
	return jsonResult(map[string]any{
		"supported_formats": formats,
		"capabilities":      capabilities,
	})
}

func formatCapabilities(ext string) map[string]bool {
	caps := map[string]bool{
		"text_extraction":     true,
		"image_extraction":    true,
		"metadata_extraction": true,
		"table_extraction":    true,
		"ai_powered":          true,
	}
	switch ext {
	case "txt":
		caps["image_extraction"] = false
		caps["metadata_extraction"] = false
		caps["table_extraction"] = false
		caps["ai_powered"] = false
	case "md":
		caps["ai_powered"] = false
	case "pptx":
		caps["table_extraction"] = false
	}
	return caps
}

func (s *Server) handleGetConversionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("operation_id")
	if err != nil {
		return mcp.NewToolResultError("operation_id is required"), nil
	}
	op, ok := s.opsStore.Get(id)
	if !ok {
		return mcp.NewToolResultError("Unknown operation: " + id), nil
	}
	return jsonResult(op)
}

func (s *Server) handleHealthCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := s.agg.Report(ctx)
	return jsonResult(report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
