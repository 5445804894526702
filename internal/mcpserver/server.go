// Package mcpserver exposes document conversion over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	sdkserver "github.com/mark3labs/mcp-go/server"

	"github.com/gaspardpetit/echoflow/internal/cache"
	"github.com/gaspardpetit/echoflow/internal/config"
	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/health"
	"github.com/gaspardpetit/echoflow/internal/ops"
)

// Server wires the converter registry, operation store, health aggregator
// and optional result cache behind the MCP tool surface.
type Server struct {
	mcp      *sdkserver.MCPServer
	cfg      *config.Config
	registry *convert.Registry
	opsStore *ops.Store
	agg      *health.Aggregator
	cache    *cache.Cache
}

// New builds the MCP server and registers its tools. cache may be nil.
func New(cfg *config.Config, version string, registry *convert.Registry, opsStore *ops.Store, agg *health.Aggregator, resultCache *cache.Cache) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		opsStore: opsStore,
		agg:      agg,
		cache:    resultCache,
	}
	s.mcp = sdkserver.NewMCPServer(
		cfg.AppName,
		version,
		sdkserver.WithToolCapabilities(false),
		sdkserver.WithResourceCapabilities(false, false),
		sdkserver.WithPromptCapabilities(false),
		sdkserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("convert_document",
		mcp.WithDescription("Convert a single document to markdown format"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the document to convert"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Output directory for converted files"),
			mcp.DefaultString("./output"),
		),
		mcp.WithBoolean("extract_images",
			mcp.Description("Whether to extract images from the document"),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("preserve_metadata",
			mcp.Description("Whether to preserve document metadata"),
			mcp.DefaultBool(true),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Per-conversion timeout in seconds"),
		),
	), s.handleConvertDocument)

	s.mcp.AddTool(mcp.NewTool("convert_directory",
		mcp.WithDescription("Convert all supported documents in a directory to markdown"),
		mcp.WithString("input_dir",
			mcp.Required(),
			mcp.Description("Directory containing documents to convert"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Output directory for converted files"),
			mcp.DefaultString("./output"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Whether to process subdirectories recursively"),
			mcp.DefaultBool(false),
		),
		mcp.WithArray("file_filter",
			mcp.Description("File extensions to include (e.g. ['pdf', 'docx'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("create_zip",
			mcp.Description("Whether to create a ZIP archive of outputs"),
			mcp.DefaultBool(false),
		),
	), s.handleConvertDirectory)

	s.mcp.AddTool(mcp.NewTool("list_supported_formats",
		mcp.WithDescription("List all supported document formats and their capabilities"),
	), s.handleListSupportedFormats)

	s.mcp.AddTool(mcp.NewTool("get_conversion_status",
		mcp.WithDescription("Get the status of a conversion operation"),
		mcp.WithString("operation_id",
			mcp.Required(),
			mcp.Description("ID of the conversion operation to check"),
		),
	), s.handleGetConversionStatus)

	s.mcp.AddTool(mcp.NewTool("health_check",
		mcp.WithDescription("Check the health status of the echoflow server"),
	), s.handleHealthCheck)
}

// ServeStdio runs the server on stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return sdkserver.ServeStdio(s.mcp)
}
