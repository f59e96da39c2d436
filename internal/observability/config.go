package observability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete observability configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter       string  `yaml:"exporter" mapstructure:"exporter"` // otlp, zipkin
	OTLPEndpoint   string  `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	ZipkinEndpoint string  `yaml:"zipkin_endpoint" mapstructure:"zipkin_endpoint"`
	SampleRate     float64 `yaml:"sample_rate" mapstructure:"sample_rate"` // 0.0 to 1.0
	ServiceName    string  `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string  `yaml:"service_version" mapstructure:"service_version"`
}

// DefaultConfig returns the default observability configuration.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SampleRate:     1.0,
			ServiceName:    "otto",
			ServiceVersion: "1.0.0",
		},
	}
}

// LoadConfig loads observability configuration from a YAML file, returning
// defaults when the file does not exist.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig struct {
		Observability Config `yaml:"observability"`
	}
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fileConfig.Observability.Logging.Level != "" {
		config.Logging.Level = fileConfig.Observability.Logging.Level
	}
	config.Metrics.Enabled = fileConfig.Observability.Metrics.Enabled
	if fileConfig.Observability.Tracing.Enabled {
		config.Tracing.Enabled = true
	}
	if fileConfig.Observability.Tracing.Exporter != "" {
		config.Tracing.Exporter = fileConfig.Observability.Tracing.Exporter
	}
	if fileConfig.Observability.Tracing.OTLPEndpoint != "" {
		config.Tracing.OTLPEndpoint = fileConfig.Observability.Tracing.OTLPEndpoint
	}
	if fileConfig.Observability.Tracing.ZipkinEndpoint != "" {
		config.Tracing.ZipkinEndpoint = fileConfig.Observability.Tracing.ZipkinEndpoint
	}
	if fileConfig.Observability.Tracing.SampleRate > 0 {
		config.Tracing.SampleRate = fileConfig.Observability.Tracing.SampleRate
	}
	if fileConfig.Observability.Tracing.ServiceName != "" {
		config.Tracing.ServiceName = fileConfig.Observability.Tracing.ServiceName
	}
	if fileConfig.Observability.Tracing.ServiceVersion != "" {
		config.Tracing.ServiceVersion = fileConfig.Observability.Tracing.ServiceVersion
	}
	return config, nil
}
