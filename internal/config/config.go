// Package config handles loading ports, API prefix, engine and user settings
// from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// HTTP server port for the controller
	HTTPPort int `mapstructure:"http_port"`

	// Prefix for every API route, always with leading and trailing slash
	APIPrefix string `mapstructure:"api_prefix"`

	LogLevel string `mapstructure:"log_level"`

	// OTLP gRPC collector address, empty disables trace export
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Fraction of traces recorded
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`

	// Number of jobs the execution engine runs at once
	EngineConcurrency int `mapstructure:"engine_concurrency"`

	// How long a deploy waits for its instance to report both milestones
	DeployTimeout time.Duration `mapstructure:"deploy_timeout"`

	// Requests per second allowed per client on the public report route.
	// Zero disables limiting.
	ReportRateLimit float64 `mapstructure:"report_rate_limit"`
	ReportRateBurst int     `mapstructure:"report_rate_burst"`

	// Optional bootstrap admin key, registered as user "admin"
	AdminAPIKey string `mapstructure:"admin_api_key"`

	Users []User `mapstructure:"users"`
}

// User is one entry of the static user directory.
type User struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	APIKeyHash string `mapstructure:"api_key_hash"`
	Admin      bool   `mapstructure:"admin"`
}

var envBindings = map[string]string{
	"http_port":          "PORT",
	"api_prefix":         "API_PREFIX",
	"log_level":          "LOG_LEVEL",
	"otel_endpoint":      "OTEL_EXPORTER_OTLP_ENDPOINT",
	"trace_sample_ratio": "OTEL_TRACES_SAMPLER_ARG",
	"engine_concurrency": "ENGINE_CONCURRENCY",
	"deploy_timeout":     "DEPLOY_TIMEOUT",
	"report_rate_limit":  "REPORT_RATE_LIMIT",
	"report_rate_burst":  "REPORT_RATE_BURST",
	"admin_api_key":      "ADMIN_API_KEY",
}

// Load reads configuration from the file at path (or statusboard.yaml in the
// working directory when path is empty) and then from environment variables,
// which take precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 6161)
	v.SetDefault("api_prefix", "/api/")
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("trace_sample_ratio", 1.0)
	v.SetDefault("engine_concurrency", 4)
	v.SetDefault("deploy_timeout", 30*time.Minute)
	v.SetDefault("report_rate_limit", 5.0)
	v.SetDefault("report_rate_burst", 10)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("statusboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.EngineConcurrency < 1 {
		return fmt.Errorf("engine_concurrency must be at least 1, got %d", c.EngineConcurrency)
	}
	if c.DeployTimeout <= 0 {
		return fmt.Errorf("deploy_timeout must be positive, got %v", c.DeployTimeout)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("trace_sample_ratio must be between 0 and 1, got %v", c.TraceSampleRatio)
	}
	if c.ReportRateLimit < 0 {
		return fmt.Errorf("report_rate_limit cannot be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", c.LogLevel)
	}

	c.APIPrefix = "/" + strings.Trim(c.APIPrefix, "/") + "/"
	if c.APIPrefix == "//" {
		c.APIPrefix = "/"
	}

	for i, u := range c.Users {
		if u.ID == "" || u.APIKeyHash == "" {
			return fmt.Errorf("users[%d]: id and api_key_hash are required", i)
		}
	}
	return nil
}
