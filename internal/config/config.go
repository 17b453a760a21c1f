// Package config loads service configuration in layers: sane defaults,
// an optional YAML file, an environment-variable overlay, then
// functional options that override the environment. Every setting is
// optional; a missing value degrades the affected subsystem rather than
// failing startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	ServiceName string
	Port        int

	LogLevel  string // debug|info|warn|error
	LogFormat string // text|json

	RedisURL       string
	RedisNamespace string

	CacheTTL            time.Duration
	StatsCacheTTL       time.Duration
	SessionCacheTTL     time.Duration
	MinConfidenceNotice float64 // loaded but read by no component; nothing is flagged by it

	HTTPTimeout        time.Duration
	BrowserNavTimeout  time.Duration
	BulkFetchConcurrency int64
	FanOutConcurrency    int64

	LLMExtractionEnabled bool
	LLMEndpoint          string
	LLMDeployment        string
	LLMAPIVersion        string

	BrowserHeadless bool

	EndOfLifeAPIBaseURL string

	// OTLPTraceEndpoint, when set, sends spans to an OTLP/gRPC collector at
	// this address instead of stdout.
	OTLPTraceEndpoint string
}

// Default returns the configuration a freshly started process has before
// any environment variables or options are applied.
func Default() *Config {
	return &Config{
		ServiceName:          "eol-agents",
		Port:                 8080,
		LogLevel:             "info",
		LogFormat:            "text",
		RedisNamespace:       "eol",
		CacheTTL:             30 * 24 * time.Hour,
		StatsCacheTTL:        5 * time.Minute,
		SessionCacheTTL:      1 * time.Hour,
		MinConfidenceNotice:  0.80,
		HTTPTimeout:          15 * time.Second,
		BrowserNavTimeout:    30 * time.Second,
		BulkFetchConcurrency: 10,
		FanOutConcurrency:    10,
		BrowserHeadless:      true,
		EndOfLifeAPIBaseURL:  "https://endoflife.date/api",
	}
}

// Option mutates a Config; applied after the environment overlay so
// explicit code always wins.
type Option func(*Config)

// WithRedisURL overrides the persistent cache tier's Redis connection.
func WithRedisURL(url string) Option {
	return func(c *Config) { c.RedisURL = url }
}

// WithPort overrides the HTTP listen port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// Load builds a Config from defaults, then an optional YAML file (path
// named by EOL_CONFIG_FILE), then the environment, then opts — each layer
// overriding only the fields it sets.
func Load(opts ...Option) (*Config, error) {
	cfg := Default()
	if path := os.Getenv("EOL_CONFIG_FILE"); path != "" {
		if err := cfg.loadFromYAMLFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	cfg.loadFromEnv()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// yamlOverlay mirrors the subset of Config an operator can set from a
// YAML file; zero-value fields are left untouched by loadFromYAMLFile so
// a partial file only overrides what it names.
type yamlOverlay struct {
	ServiceName         string  `yaml:"service_name"`
	Port                int     `yaml:"port"`
	LogLevel            string  `yaml:"log_level"`
	LogFormat           string  `yaml:"log_format"`
	RedisURL            string  `yaml:"redis_url"`
	RedisNamespace      string  `yaml:"redis_namespace"`
	MinConfidenceNotice float64 `yaml:"min_confidence_notice"`
	EndOfLifeAPIBaseURL string  `yaml:"endoflife_api_base_url"`
	BrowserHeadless     *bool   `yaml:"browser_headless"`
	OTLPTraceEndpoint   string  `yaml:"otlp_trace_endpoint"`
}

// loadFromYAMLFile reads an optional operator-provided config file,
// applying its fields on top of Default() before the environment overlay
// runs. The path is only consulted when EOL_CONFIG_FILE names one; a
// missing or unreadable file at that path is an error that fails Load.
func (c *Config) loadFromYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.LogLevel != "" {
		c.LogLevel = strings.ToLower(overlay.LogLevel)
	}
	if overlay.LogFormat != "" {
		c.LogFormat = strings.ToLower(overlay.LogFormat)
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.RedisNamespace != "" {
		c.RedisNamespace = overlay.RedisNamespace
	}
	if overlay.MinConfidenceNotice != 0 {
		c.MinConfidenceNotice = overlay.MinConfidenceNotice
	}
	if overlay.EndOfLifeAPIBaseURL != "" {
		c.EndOfLifeAPIBaseURL = overlay.EndOfLifeAPIBaseURL
	}
	if overlay.BrowserHeadless != nil {
		c.BrowserHeadless = *overlay.BrowserHeadless
	}
	if overlay.OTLPTraceEndpoint != "" {
		c.OTLPTraceEndpoint = overlay.OTLPTraceEndpoint
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("EOL_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("EOL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("EOL_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("EOL_LOG_FORMAT"); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("EOL_REDIS_URL"); v != "" {
		c.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("EOL_REDIS_NAMESPACE"); v != "" {
		c.RedisNamespace = v
	}
	if v := os.Getenv("EOL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = d
		}
	}
	if v := os.Getenv("EOL_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("EOL_BROWSER_NAV_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BrowserNavTimeout = d
		}
	}
	if v := os.Getenv("EOL_BULK_FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.BulkFetchConcurrency = n
		}
	}
	if v := os.Getenv("EOL_FANOUT_CONCURRENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.FanOutConcurrency = n
		}
	}
	if v := os.Getenv("LLM_EXTRACTION"); v != "" {
		c.LLMExtractionEnabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("EOL_LLM_ENDPOINT"); v != "" {
		c.LLMEndpoint = v
	}
	if v := os.Getenv("EOL_LLM_DEPLOYMENT"); v != "" {
		c.LLMDeployment = v
	}
	if v := os.Getenv("EOL_LLM_API_VERSION"); v != "" {
		c.LLMAPIVersion = v
	}
	if v := os.Getenv("EOL_BROWSER_HEADLESS"); v != "" {
		c.BrowserHeadless = !strings.EqualFold(v, "false")
	}
	if v := os.Getenv("EOL_ENDOFLIFE_API_BASE_URL"); v != "" {
		c.EndOfLifeAPIBaseURL = v
	}
	if v := os.Getenv("EOL_OTLP_ENDPOINT"); v != "" {
		c.OTLPTraceEndpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPTraceEndpoint = v
	}
}

// Validate rejects configurations that cannot possibly work; everything
// else is allowed to degrade at runtime instead of failing startup.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	return nil
}
