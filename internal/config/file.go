// SPDX-License-Identifier: MIT

package config

// FileConfig is the YAML representation of the configuration file.
// Pointer fields distinguish "unset" from the zero value.
type FileConfig struct {
	LinksPath string         `yaml:"linksPath,omitempty"`
	DryRun    *bool          `yaml:"dryRun,omitempty"`
	Check     CheckConfig    `yaml:"check,omitempty"`
	Providers ProviderConfig `yaml:"providers,omitempty"`
	Log       LogConfig      `yaml:"log,omitempty"`
	Metrics   MetricsConfig  `yaml:"metrics,omitempty"`
	Tracing   TracingFile    `yaml:"tracing,omitempty"`
}

// CheckConfig holds batch and request tunables.
type CheckConfig struct {
	BatchSize        *int   `yaml:"batchSize,omitempty"`
	BatchDelay       string `yaml:"batchDelay,omitempty"`
	RequestTimeout   string `yaml:"requestTimeout,omitempty"`
	MaxResponseBytes *int64 `yaml:"maxResponseBytes,omitempty"`
	UserAgent        string `yaml:"userAgent,omitempty"`
}

// ProviderConfig overrides the provider endpoints.
type ProviderConfig struct {
	TwitchBaseURL  string `yaml:"twitchBaseURL,omitempty"`
	KickAPIBaseURL string `yaml:"kickAPIBaseURL,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig holds the textfile exporter path.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// TracingFile holds OpenTelemetry settings.
type TracingFile struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}
