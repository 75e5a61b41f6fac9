// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/videolinks/statuscheck/internal/log"
)

// Environment keys. All are optional.
const (
	EnvConfigPath       = "STATUSCHECK_CONFIG"
	EnvLinksPath        = "STATUSCHECK_LINKS_PATH"
	EnvDryRun           = "STATUSCHECK_DRY_RUN"
	EnvBatchSize        = "STATUSCHECK_BATCH_SIZE"
	EnvBatchDelay       = "STATUSCHECK_BATCH_DELAY"
	EnvRequestTimeout   = "STATUSCHECK_REQUEST_TIMEOUT"
	EnvMaxResponseBytes = "STATUSCHECK_MAX_RESPONSE_BYTES"
	EnvUserAgent        = "STATUSCHECK_USER_AGENT"
	EnvTwitchBaseURL    = "STATUSCHECK_TWITCH_BASE_URL"
	EnvKickAPIBaseURL   = "STATUSCHECK_KICK_API_BASE_URL"
	EnvLogLevel         = "STATUSCHECK_LOG_LEVEL"
	EnvLogFormat        = "STATUSCHECK_LOG_FORMAT"
	EnvMetricsTextfile  = "STATUSCHECK_METRICS_TEXTFILE"
	EnvTracingEnabled   = "STATUSCHECK_TRACING_ENABLED"
	EnvTracingExporter  = "STATUSCHECK_TRACING_EXPORTER"
	EnvTracingEndpoint  = "STATUSCHECK_TRACING_ENDPOINT"
	EnvTracingSampling  = "STATUSCHECK_TRACING_SAMPLING_RATE"
	EnvTracingEnv       = "STATUSCHECK_TRACING_ENVIRONMENT"
)

// ConsumedEnvKeys lists every environment variable the loader reads.
var ConsumedEnvKeys = []string{
	EnvConfigPath, EnvLinksPath, EnvDryRun,
	EnvBatchSize, EnvBatchDelay, EnvRequestTimeout, EnvMaxResponseBytes, EnvUserAgent,
	EnvTwitchBaseURL, EnvKickAPIBaseURL,
	EnvLogLevel, EnvLogFormat, EnvMetricsTextfile,
	EnvTracingEnabled, EnvTracingExporter, EnvTracingEndpoint, EnvTracingSampling, EnvTracingEnv,
}

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath falls
// back to STATUSCHECK_CONFIG; if both are empty no file is read.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Load loads configuration with proper precedence and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	path := l.configPath
	if path == "" {
		path = ParseString(EnvConfigPath, "")
	}
	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFile(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFile reads a YAML configuration file with strict parsing.
func loadFile(path string) (*FileConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only .yaml/.yml supported)", ext)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("parse YAML: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse YAML trailing content: %w", err)
	}

	return &cfg, nil
}

// mergeFile overlays non-empty file values onto cfg.
func mergeFile(cfg *AppConfig, src *FileConfig) error {
	if src.LinksPath != "" {
		cfg.LinksPath = src.LinksPath
	}
	if src.DryRun != nil {
		cfg.DryRun = *src.DryRun
	}

	if src.Check.BatchSize != nil {
		cfg.BatchSize = *src.Check.BatchSize
	}
	if err := mergeDuration(&cfg.BatchDelay, "check.batchDelay", src.Check.BatchDelay); err != nil {
		return err
	}
	if err := mergeDuration(&cfg.RequestTimeout, "check.requestTimeout", src.Check.RequestTimeout); err != nil {
		return err
	}
	if src.Check.MaxResponseBytes != nil {
		cfg.MaxResponseBytes = *src.Check.MaxResponseBytes
	}
	if src.Check.UserAgent != "" {
		cfg.UserAgent = src.Check.UserAgent
	}

	if src.Providers.TwitchBaseURL != "" {
		cfg.TwitchBaseURL = src.Providers.TwitchBaseURL
	}
	if src.Providers.KickAPIBaseURL != "" {
		cfg.KickAPIBaseURL = src.Providers.KickAPIBaseURL
	}

	if src.Log.Level != "" {
		cfg.LogLevel = src.Log.Level
	}
	if src.Log.Format != "" {
		cfg.LogFormat = src.Log.Format
	}
	if src.Metrics.Textfile != "" {
		cfg.MetricsTextfile = src.Metrics.Textfile
	}

	if src.Tracing.Enabled != nil {
		cfg.Tracing.Enabled = *src.Tracing.Enabled
	}
	if src.Tracing.Exporter != "" {
		cfg.Tracing.Exporter = src.Tracing.Exporter
	}
	if src.Tracing.Endpoint != "" {
		cfg.Tracing.Endpoint = src.Tracing.Endpoint
	}
	if src.Tracing.SamplingRate != nil {
		cfg.Tracing.SamplingRate = *src.Tracing.SamplingRate
	}
	if src.Tracing.Environment != "" {
		cfg.Tracing.Environment = src.Tracing.Environment
	}
	return nil
}

func mergeDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

// mergeEnv applies environment overrides; the current value is the fallback.
func mergeEnv(cfg *AppConfig) {
	cfg.LinksPath = ParseString(EnvLinksPath, cfg.LinksPath)
	cfg.DryRun = ParseBool(EnvDryRun, cfg.DryRun)

	cfg.BatchSize = ParseInt(EnvBatchSize, cfg.BatchSize)
	cfg.BatchDelay = ParseDuration(EnvBatchDelay, cfg.BatchDelay)
	cfg.RequestTimeout = ParseDuration(EnvRequestTimeout, cfg.RequestTimeout)
	cfg.MaxResponseBytes = ParseInt64(EnvMaxResponseBytes, cfg.MaxResponseBytes)
	cfg.UserAgent = ParseString(EnvUserAgent, cfg.UserAgent)

	cfg.TwitchBaseURL = ParseString(EnvTwitchBaseURL, cfg.TwitchBaseURL)
	cfg.KickAPIBaseURL = ParseString(EnvKickAPIBaseURL, cfg.KickAPIBaseURL)

	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = ParseString(EnvLogFormat, cfg.LogFormat)
	cfg.MetricsTextfile = ParseString(EnvMetricsTextfile, cfg.MetricsTextfile)

	cfg.Tracing.Enabled = ParseBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat(EnvTracingSampling, cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = ParseString(EnvTracingEnv, cfg.Tracing.Environment)

	logger := log.WithComponent("config")
	logger.Debug().
		Str(log.FieldEvent, "config.env_merged").
		Str(log.FieldPath, cfg.LinksPath).
		Msg("environment overrides applied")
}
