// Package config loads service configuration from otto.yaml and OTTO_*
// environment variables, with working defaults for the demo deployment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"otto/internal/observability"
)

// AgentConfig holds the endpoint of every external agent service.
type AgentConfig struct {
	PublicDataURL       string `mapstructure:"public_data_url"`
	PreferenceCreateURL string `mapstructure:"preference_create_url"`
	CalendarURL         string `mapstructure:"calendar_url"`
	PreferenceQueryURL  string `mapstructure:"preference_query_url"`
	GiftURL             string `mapstructure:"gift_url"`
}

// AuthConfig holds the external login API and user-directory endpoints.
type AuthConfig struct {
	LoginURL     string `mapstructure:"login_url"`
	DirectoryURL string `mapstructure:"directory_url"`
	DirectoryKey string `mapstructure:"directory_key"`
}

// Config is the full service configuration.
type Config struct {
	Port           int           `mapstructure:"port"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	ResponseLimit  int64         `mapstructure:"response_limit"`
	CacheSize      int           `mapstructure:"cache_size"`
	SessionDir     string        `mapstructure:"session_dir"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`

	Agents        AgentConfig          `mapstructure:"agents"`
	Auth          AuthConfig           `mapstructure:"auth"`
	Observability observability.Config `mapstructure:"observability"`
}

// Load reads otto.yaml from ~/.otto or the working directory, then applies
// OTTO_* environment overrides (OTTO_AGENTS_CALENDAR_URL and friends).
// A missing config file is not an error; the defaults stand.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("otto")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.otto")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OTTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	// Environment overrides arrive as strings; decode them weakly so
	// OTTO_PORT=8080 still lands in an int field.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(&cfg, weak); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5001)
	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("response_limit", int64(4<<20))
	v.SetDefault("cache_size", 128)
	v.SetDefault("session_dir", "~/.otto/sessions")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Demo deployment endpoints; override per environment.
	v.SetDefault("agents.public_data_url", "https://openai-agent-app-tb5gn1.7g6hwo.usux.e2.cloudhub.io/public-data-agent")
	v.SetDefault("agents.preference_create_url", "https://preference-agent-app-tb5gn1.7g6hwo.usux.e2.cloudhub.io/preference-agent")
	v.SetDefault("agents.calendar_url", "https://calendar-agent-app-bt5gn1.7y6hwo.usa-e2.cloudhub.io/calendar-agent")
	v.SetDefault("agents.preference_query_url", "https://preference-agent-app-bt5gn1.7y6hwo.usa-e2.cloudhub.io/preference-agent")
	v.SetDefault("agents.gift_url", "https://open-ai-agent-app-bt5gn1.7y6hwo.usa-e2.cloudhub.io/public-data-agent")

	v.SetDefault("auth.login_url", "https://demojam-login-management-api-bt5gn1.7y6hwo.usa-e2.cloudhub.io/check/login")
	v.SetDefault("auth.directory_url", "")
	v.SetDefault("auth.directory_key", "")

	defaults := observability.DefaultConfig()
	v.SetDefault("observability.logging.level", defaults.Logging.Level)
	v.SetDefault("observability.metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("observability.tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("observability.tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("observability.tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("observability.tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("observability.tracing.service_name", defaults.Tracing.ServiceName)
	v.SetDefault("observability.tracing.service_version", defaults.Tracing.ServiceVersion)
}
