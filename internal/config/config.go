package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Service information
	Service struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
		Environment string `yaml:"environment"`
	} `yaml:"service"`

	HTTP      HTTPConfig      `yaml:"http"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Client    ClientConfig    `yaml:"client"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig represents HTTP server configuration
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSAllowOrigin string        `yaml:"cors_allow_origin"`
	APIPrefix       string        `yaml:"api_prefix"`
}

// UpstreamConfig describes one remote service the console talks to
type UpstreamConfig struct {
	Name string `yaml:"name"`
	// BaseURL is the API root, e.g. http://host:3000/api
	BaseURL string `yaml:"base_url"`
	// HealthURL is the host serving GET /health
	HealthURL string `yaml:"health_url"`
}

// UpstreamsConfig holds the order and inventory services
type UpstreamsConfig struct {
	Order     UpstreamConfig `yaml:"order"`
	Inventory UpstreamConfig `yaml:"inventory"`
}

// ClientConfig holds settings of the order/inventory API client
type ClientConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MonitorConfig holds health polling settings
type MonitorConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WebSocketConfig represents the live monitor feed configuration
type WebSocketConfig struct {
	Path           string        `yaml:"path"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
}

// AuthConfig holds operator authentication configuration
type AuthConfig struct {
	Enabled       bool          `yaml:"enabled"`
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTExpiration time.Duration `yaml:"jwt_expiration"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RequestsPerMin int           `yaml:"requests_per_min"`
	BurstSize      int           `yaml:"burst_size"`
	ExpirationTime time.Duration `yaml:"expiration_time"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads the configuration from a file. An empty path skips the file and
// builds the configuration from defaults and the environment only.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		// Read the configuration file
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse the configuration
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(config)

	// Set defaults
	setDefaults(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvironmentOverrides applies environment variable overrides
func applyEnvironmentOverrides(config *Config) {
	if addr := os.Getenv("HTTP_ADDRESS"); addr != "" {
		config.HTTP.Address = addr
	}

	// Upstream locations
	if v := os.Getenv("ORDER_API_URL"); v != "" {
		config.Upstreams.Order.BaseURL = v
	}
	if v := os.Getenv("ORDER_HEALTH_URL"); v != "" {
		config.Upstreams.Order.HealthURL = v
	}
	if v := os.Getenv("INVENTORY_API_URL"); v != "" {
		config.Upstreams.Inventory.BaseURL = v
	}
	if v := os.Getenv("INVENTORY_HEALTH_URL"); v != "" {
		config.Upstreams.Inventory.HealthURL = v
	}

	// Malformed durations are left for validation to report
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Monitor.PollInterval = d
		} else {
			config.Monitor.PollInterval = -1
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Service.Environment = env
	}
}

// setDefaults sets default values for configuration
func setDefaults(config *Config) {
	if config.Service.Name == "" {
		config.Service.Name = "opsconsole"
	}
	if config.Service.Version == "" {
		config.Service.Version = "1.0.0"
	}
	if config.Service.Environment == "" {
		config.Service.Environment = "development"
	}

	if config.HTTP.Address == "" {
		config.HTTP.Address = ":8080"
	}
	if config.HTTP.ReadTimeout == 0 {
		config.HTTP.ReadTimeout = 10 * time.Second
	}
	if config.HTTP.WriteTimeout == 0 {
		config.HTTP.WriteTimeout = 10 * time.Second
	}
	if config.HTTP.ShutdownTimeout == 0 {
		config.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if config.HTTP.CORSAllowOrigin == "" {
		config.HTTP.CORSAllowOrigin = "*"
	}
	if config.HTTP.APIPrefix == "" {
		config.HTTP.APIPrefix = "/api/v1"
	}

	if config.Upstreams.Order.Name == "" {
		config.Upstreams.Order.Name = "Order Service"
	}
	if config.Upstreams.Inventory.Name == "" {
		config.Upstreams.Inventory.Name = "Inventory Service"
	}

	if config.Client.RequestTimeout == 0 {
		config.Client.RequestTimeout = 10 * time.Second
	}

	if config.Monitor.PollInterval == 0 {
		config.Monitor.PollInterval = 3 * time.Second
	}
	if config.Monitor.RequestTimeout == 0 {
		config.Monitor.RequestTimeout = 5 * time.Second
	}

	if config.WebSocket.Path == "" {
		config.WebSocket.Path = "/ws/monitor"
	}
	if config.WebSocket.WriteTimeout == 0 {
		config.WebSocket.WriteTimeout = 10 * time.Second
	}
	if config.WebSocket.PongTimeout == 0 {
		config.WebSocket.PongTimeout = 60 * time.Second
	}
	if config.WebSocket.MaxMessageSize == 0 {
		config.WebSocket.MaxMessageSize = 4096
	}
	if config.WebSocket.SendBuffer == 0 {
		config.WebSocket.SendBuffer = 16
	}

	if config.Auth.JWTExpiration == 0 {
		config.Auth.JWTExpiration = 12 * time.Hour
	}

	if config.RateLimit.RequestsPerMin == 0 {
		config.RateLimit.RequestsPerMin = 60
	}
	if config.RateLimit.BurstSize == 0 {
		config.RateLimit.BurstSize = 10
	}
	if config.RateLimit.ExpirationTime == 0 {
		config.RateLimit.ExpirationTime = 10 * time.Minute
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	upstreams := []struct {
		field string
		value string
	}{
		{"upstreams.order.base_url", config.Upstreams.Order.BaseURL},
		{"upstreams.order.health_url", config.Upstreams.Order.HealthURL},
		{"upstreams.inventory.base_url", config.Upstreams.Inventory.BaseURL},
		{"upstreams.inventory.health_url", config.Upstreams.Inventory.HealthURL},
	}
	for _, u := range upstreams {
		if err := validateURL(u.value); err != nil {
			return fmt.Errorf("%s: %w", u.field, err)
		}
	}

	if config.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor poll interval must be positive")
	}
	if config.Monitor.RequestTimeout < 0 || config.Client.RequestTimeout < 0 {
		return fmt.Errorf("request timeouts must not be negative")
	}

	// Validate logging configuration
	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid logging level: %s", config.Logging.Level)
	}
	if config.Logging.Format != "json" && config.Logging.Format != "text" {
		return fmt.Errorf("invalid logging format: %s", config.Logging.Format)
	}

	if config.Auth.Enabled && config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required when authentication is enabled")
	}

	if config.RateLimit.Enabled && config.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("rate limit requests per minute must be positive")
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
