// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// VenuesConfig holds the set of venues to stream from and the shared
// connection-discipline knobs that apply to every one of them.
type VenuesConfig struct {
	// Enabled lists which of kraken/bitfinex/bitstamp/mexc/okx/coinbase
	// to start clients for.
	Enabled []string `mapstructure:"enabled"`
	// Markets is the canonical BASE/QUOTE pair list every enabled venue
	// subscribes ticker, orderbook, and trades channels for.
	Markets []string `mapstructure:"markets"`

	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`

	// MaxMessageFailures is the parse-failure count within
	// FailureWindow that, once exceeded, trips the per-venue quarantine and
	// forces a reconnect. Overridable per deployment via CCXT_MAX_MSG_FAILURES.
	MaxMessageFailures int           `mapstructure:"max_message_failures"`
	FailureWindow      time.Duration `mapstructure:"failure_window"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	SendTimeout      time.Duration `mapstructure:"send_timeout"`

	// SubscribeRateLimit caps outbound subscribe/unsubscribe frames per
	// minute, per venue client.
	SubscribeRateLimit int `mapstructure:"subscribe_rate_limit"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("STREAMFEED")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "STREAMFEED_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "STREAMFEED_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "STREAMFEED_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("venues.enabled", "STREAMFEED_VENUES")
	v.BindEnv("venues.markets", "STREAMFEED_MARKETS")
	v.BindEnv("venues.max_message_failures", "CCXT_MAX_MSG_FAILURES")

	v.BindEnv("telemetry.enabled", "STREAMFEED_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "STREAMFEED_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "STREAMFEED_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "streamfeed")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("venues.enabled", []string{"kraken", "bitfinex", "bitstamp", "mexc"})
	v.SetDefault("venues.markets", []string{"BTC/USD", "ETH/USD"})
	v.SetDefault("venues.initial_backoff", "1s")
	v.SetDefault("venues.max_backoff", "60s")
	v.SetDefault("venues.max_message_failures", 100)
	v.SetDefault("venues.failure_window", "60s")
	v.SetDefault("venues.handshake_timeout", "15s")
	v.SetDefault("venues.send_timeout", "5s")
	v.SetDefault("venues.subscribe_rate_limit", 300)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "streamfeed")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Venues.Enabled) == 0 {
		return fmt.Errorf("venues.enabled cannot be empty")
	}
	if len(c.Venues.Markets) == 0 {
		return fmt.Errorf("venues.markets cannot be empty")
	}
	if c.Venues.MaxMessageFailures <= 0 {
		return fmt.Errorf("venues.max_message_failures must be positive")
	}
	return nil
}
