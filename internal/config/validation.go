// SPDX-License-Identifier: MIT

package config

import (
	"time"

	"github.com/videolinks/statuscheck/internal/validate"
)

var (
	httpSchemes    = []string{"http", "https"}
	logFormats     = []string{"json", "console"}
	traceExporters = []string{"grpc", "http"}
)

// Validate checks cfg and returns an aggregated validate.ValidationError.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("LinksPath", cfg.LinksPath)
	v.Range("BatchSize", cfg.BatchSize, 1, 1000)
	v.NonNegative("BatchDelay", cfg.BatchDelay)
	v.DurationRange("RequestTimeout", cfg.RequestTimeout, 100*time.Millisecond, 5*time.Minute)
	v.Positive("MaxResponseBytes", cfg.MaxResponseBytes)
	v.NotEmpty("UserAgent", cfg.UserAgent)
	v.URL("TwitchBaseURL", cfg.TwitchBaseURL, httpSchemes)
	v.URL("KickAPIBaseURL", cfg.KickAPIBaseURL, httpSchemes)

	v.OneOf("LogLevel", cfg.LogLevel, validate.LogLevels)
	v.OneOf("LogFormat", cfg.LogFormat, logFormats)

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, traceExporters)
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("Tracing.SamplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	return v.Err()
}
