// SPDX-License-Identifier: MIT

// Package config loads the status checker configuration.
//
// Precedence is ENV > YAML file > defaults. Every tunable the checker uses is
// carried explicitly in AppConfig; nothing is read from hidden package state.
package config

import "time"

// Defaults for the batch run.
const (
	DefaultLinksPath        = "./video-links.json"
	DefaultBatchSize        = 10
	DefaultBatchDelay       = 500 * time.Millisecond
	DefaultRequestTimeout   = 5 * time.Second
	DefaultMaxResponseBytes = 1 << 20 // 1 MiB
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTwitchBaseURL    = "https://www.twitch.tv"
	DefaultKickAPIBaseURL   = "https://kick.com/api/v2/channels"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultTracingExporter  = "grpc"
	DefaultTracingEndpoint  = "localhost:4317"
)

// AppConfig holds the configuration of a single status check run.
type AppConfig struct {
	Version string

	// LinksPath is read at start and fully overwritten at the end of a run.
	LinksPath string
	DryRun    bool

	BatchSize        int
	BatchDelay       time.Duration
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	UserAgent        string

	TwitchBaseURL  string
	KickAPIBaseURL string

	LogLevel  string
	LogFormat string

	// MetricsTextfile, when set, receives a Prometheus text exposition after the run.
	MetricsTextfile string

	Tracing TracingConfig
}

// TracingConfig controls OTLP span export.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // grpc | http
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// Defaults returns the documented default configuration.
func Defaults() AppConfig {
	return AppConfig{
		LinksPath:        DefaultLinksPath,
		BatchSize:        DefaultBatchSize,
		BatchDelay:       DefaultBatchDelay,
		RequestTimeout:   DefaultRequestTimeout,
		MaxResponseBytes: DefaultMaxResponseBytes,
		UserAgent:        DefaultUserAgent,
		TwitchBaseURL:    DefaultTwitchBaseURL,
		KickAPIBaseURL:   DefaultKickAPIBaseURL,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		Tracing: TracingConfig{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
