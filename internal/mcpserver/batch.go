package mcpserver

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/logx"
	"github.com/gaspardpetit/echoflow/internal/ops"
)

const archiveName = "converted_documents.zip"

func (s *Server) handleConvertDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, cid := logx.WithCorrelationID(ctx, "")
	inputDir, err := req.RequireString("input_dir")
	if err != nil {
		return mcp.NewToolResultError("input_dir is required"), nil
	}
	info, err := os.Stat(inputDir)
	if err != nil {
		return mcp.NewToolResultError("Input directory does not exist: " + inputDir), nil
	}
	if !info.IsDir() {
		return mcp.NewToolResultError("Input path is not a directory: " + inputDir), nil
	}

	outputDir := req.GetString("output_dir", "./output")
	recursive := req.GetBool("recursive", false)
	createZip := req.GetBool("create_zip", false)
	filter := normalizeFilter(req.GetStringSlice("file_filter", nil), s.registry.SupportedFormats())
	opts := s.optionsFromRequest(req)

	id := s.opsStore.Create("convert_directory")
	logx.Log.Info().Str("tool", "convert_directory").Str("input_dir", inputDir).Str("operation_id", id).Str("correlation_id", cid).Msg("calling MCP tool")

	// The batch outlives the tool call; clients poll get_conversion_status.
	go s.runBatch(context.Background(), id, inputDir, outputDir, recursive, createZip, filter, opts)

	return jsonResult(map[string]string{
		"operation_id": id,
		"status":       string(ops.StatusPending),
	})
}

func normalizeFilter(requested, supported []string) map[string]bool {
	allowed := map[string]bool{}
	if len(requested) == 0 {
		for _, f := range supported {
			allowed[f] = true
		}
		return allowed
	}
	supportedSet := map[string]bool{}
	for _, f := range supported {
		supportedSet[f] = true
	}
	for _, f := range requested {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if supportedSet[f] {
			allowed[f] = true
		}
	}
	return allowed
}

func (s *Server) runBatch(ctx context.Context, id, inputDir, outputDir string, recursive, createZip bool, filter map[string]bool, opts convert.Options) {
	s.opsStore.Start(id)

	files, err := collectFiles(inputDir, recursive, filter, s.cfg.MaxBatchSize)
	if err != nil {
		logx.Log.Error().Err(err).Str("operation_id", id).Msg("directory scan failed")
		s.opsStore.Fail(id, "directory scan failed: "+err.Error())
		return
	}

	for _, path := range files {
		if info, err := os.Stat(path); err == nil && s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
			s.opsStore.AddFile(id, ops.FileOutcome{Path: path, Skipped: true, Error: "exceeds configured max file size"})
			continue
		}
		res, outputFile := s.convertOne(ctx, path, outputDir, opts)
		outcome := ops.FileOutcome{Path: path, Success: res.Success, OutputPath: outputFile}
		if !res.Success {
			outcome.Error = res.ErrorMessage
		}
		s.opsStore.AddFile(id, outcome)
	}

	archivePath := ""
	if createZip {
		archivePath = filepath.Join(outputDir, archiveName)
		if err := zipDirectory(outputDir, archivePath); err != nil {
			logx.Log.Warn().Err(err).Str("operation_id", id).Msg("archive creation failed")
			archivePath = ""
		}
	}
	s.opsStore.Complete(id, archivePath)
	logx.Log.Info().Str("operation_id", id).Int("files", len(files)).Msg("directory conversion completed")
}

func collectFiles(root string, recursive bool, filter map[string]bool, limit int) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !filter[ext] {
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return fs.SkipAll
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// zipDirectory archives every file under dir except the archive itself.
func zipDirectory(dir, archivePath string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == archivePath {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		_ = out.Close()
		return walkErr
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
