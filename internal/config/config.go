// Package config holds the server configuration, bound from environment
// variables, command-line flags, and an optional YAML file.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the echoflow server.
type Config struct {
	AppName  string `yaml:"app_name"`
	LogLevel string `yaml:"log_level"`

	TempDir       string `yaml:"temp_dir"`
	CacheDir      string `yaml:"cache_dir"`
	ModelCacheDir string `yaml:"model_cache_dir"`

	MaxFileSize  int64 `yaml:"max_file_size"`
	MaxBatchSize int   `yaml:"max_batch_size"`

	DefaultTimeout time.Duration `yaml:"default_timeout"`
	HealthInterval time.Duration `yaml:"health_interval"`

	SupportedFormats []string `yaml:"supported_formats"`

	DoclingURL    string `yaml:"docling_url"`
	DoclingAPIKey string `yaml:"docling_api_key"`

	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	StatusAddr  string `yaml:"status_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	MCPHTTPAddr string `yaml:"mcp_http_addr"`

	ConfigFile string `yaml:"-"`
}

func (c *Config) BindFlags() {
	c.AppName = "echoflow"
	c.ConfigFile = getEnv("CONFIG_FILE", "")
	c.LogLevel = getEnv("ECHOFLOW_LOG_LEVEL", "info")
	c.TempDir = getEnv("ECHOFLOW_TEMP_DIR", "/tmp/echoflow")
	c.CacheDir = getEnv("ECHOFLOW_CACHE_DIR", ".cache")
	c.ModelCacheDir = getEnv("ECHOFLOW_MODEL_CACHE_DIR", ".cache/models")
	c.MaxFileSize = getEnvInt64("ECHOFLOW_MAX_FILE_SIZE", 50*1024*1024)
	c.MaxBatchSize = int(getEnvInt64("ECHOFLOW_MAX_BATCH_SIZE", 100))
	c.DefaultTimeout = getEnvDuration("ECHOFLOW_TIMEOUT", 300*time.Second)
	c.HealthInterval = getEnvDuration("ECHOFLOW_HEALTH_INTERVAL", 300*time.Second)
	c.SupportedFormats = splitFormats(getEnv("ECHOFLOW_SUPPORTED_FORMATS", "pdf,docx,pptx,txt,html,md"))
	c.DoclingURL = getEnv("ECHOFLOW_DOCLING_URL", "http://127.0.0.1:5001")
	c.DoclingAPIKey = getEnv("ECHOFLOW_DOCLING_API_KEY", "")
	c.RedisAddr = getEnv("ECHOFLOW_REDIS_ADDR", "")
	c.CacheTTL = getEnvDuration("ECHOFLOW_CACHE_TTL", time.Hour)
	c.StatusAddr = getEnv("ECHOFLOW_STATUS_ADDR", "")
	c.MCPHTTPAddr = getEnv("ECHOFLOW_MCP_HTTP_ADDR", "")
	mp := getEnv("ECHOFLOW_METRICS_PORT", "")
	if mp != "" && !strings.Contains(mp, ":") {
		mp = ":" + mp
	}
	c.MetricsAddr = mp

	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "config file path (YAML)")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	flag.StringVar(&c.TempDir, "temp-dir", c.TempDir, "temporary working directory")
	flag.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "cache directory")
	flag.StringVar(&c.ModelCacheDir, "model-cache-dir", c.ModelCacheDir, "AI model cache directory handed to the backend")
	flag.Int64Var(&c.MaxFileSize, "max-file-size", c.MaxFileSize, "maximum input file size in bytes")
	flag.IntVar(&c.MaxBatchSize, "max-batch-size", c.MaxBatchSize, "maximum number of files per directory conversion")
	flag.DurationVar(&c.DefaultTimeout, "timeout", c.DefaultTimeout, "default per-conversion timeout")
	flag.DurationVar(&c.HealthInterval, "health-interval", c.HealthInterval, "AI model health check cache interval")
	flag.StringVar(&c.DoclingURL, "docling-url", c.DoclingURL, "base URL of the docling-serve backend (e.g. http://127.0.0.1:5001)")
	flag.StringVar(&c.DoclingAPIKey, "docling-api-key", c.DoclingAPIKey, "API key for the docling backend; leave empty for no auth")
	flag.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for the conversion result cache (disabled when empty)")
	flag.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "TTL for cached conversion results")
	flag.StringVar(&c.StatusAddr, "status-addr", c.StatusAddr, "local status HTTP listen address (enables /healthz and /status; e.g. 127.0.0.1:4555)")
	flag.StringVar(&c.MCPHTTPAddr, "mcp-http-addr", c.MCPHTTPAddr, "serve MCP over streamable HTTP on this address in addition to stdio (disabled when empty)")
	flag.StringVar(&c.MetricsAddr, "metrics-port", c.MetricsAddr, "Prometheus metrics listen address or port (disabled when empty; e.g. 127.0.0.1:9090 or 9090)")
	flag.Func("supported-formats", "comma-separated list of handled file extensions", func(v string) error {
		c.SupportedFormats = splitFormats(v)
		return nil
	})
}

// LoadFile populates the config from a YAML file. Fields already set remain
// unless overwritten by corresponding entries in the file.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func splitFormats(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// Bare numbers are treated as seconds.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}
