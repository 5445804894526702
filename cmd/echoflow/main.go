package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/echoflow/internal/cache"
	"github.com/gaspardpetit/echoflow/internal/config"
	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/docling"
	"github.com/gaspardpetit/echoflow/internal/health"
	"github.com/gaspardpetit/echoflow/internal/logx"
	"github.com/gaspardpetit/echoflow/internal/mcpserver"
	"github.com/gaspardpetit/echoflow/internal/metrics"
	"github.com/gaspardpetit/echoflow/internal/ops"
	"github.com/gaspardpetit/echoflow/internal/status"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.Config
	cfg.BindFlags()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "echoflow version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("echoflow version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)

	for _, dir := range []string{cfg.TempDir, cfg.CacheDir, cfg.ModelCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logx.Log.Fatal().Err(err).Str("dir", dir).Msg("create directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := docling.NewClient(cfg.DoclingURL, cfg.DoclingAPIKey)
	manager := docling.NewModelManager(func(ctx context.Context) (docling.Engine, error) {
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}, cfg.HealthInterval)
	defer manager.Cleanup()

	registry := convert.NewRegistry()
	registry.Register(docling.NewConverter(manager))
	registry.Register(convert.NewPDFTextConverter())
	registry.Register(convert.NewPlainTextConverter())
	registry.Restrict(cfg.SupportedFormats)

	var resultCache *cache.Cache
	if cfg.RedisAddr != "" {
		var err error
		resultCache, err = cache.New(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect redis")
		}
		defer func() { _ = resultCache.Close() }()
		logx.Log.Info().Str("addr", cfg.RedisAddr).Msg("result cache enabled")
	}

	opsStore := ops.NewStore()
	agg := health.NewAggregator(&cfg, version, manager)
	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.StatusAddr != "" {
		statusSrv := status.NewServer(cfg.AppName, version, agg, manager, opsStore, registry.SupportedFormats)
		addr, err := status.Serve(ctx, cfg.StatusAddr, statusSrv.Handler())
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.StatusAddr).Msg("status server")
		}
		logx.Log.Info().Str("addr", addr).Msg("status server listening")
	}
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.StatusAddr {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr, err := status.Serve(ctx, cfg.MetricsAddr, mux)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server")
		}
		logx.Log.Info().Str("addr", addr).Msg("metrics server listening")
	}

	srv := mcpserver.New(&cfg, version, registry, opsStore, agg, resultCache)
	if cfg.MCPHTTPAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/mcp", srv.HTTPHandler())
		addr, err := status.Serve(ctx, cfg.MCPHTTPAddr, mux)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", cfg.MCPHTTPAddr).Msg("mcp http server")
		}
		logx.Log.Info().Str("addr", addr).Msg("mcp streamable http listening")
	}
	logx.Log.Info().Str("version", version).Str("docling_url", cfg.DoclingURL).Msg("echoflow MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		logx.Log.Fatal().Err(err).Msg("mcp server exited")
	}
}
