// Package config implements the platform's three-layer configuration
// priority, ported from the teacher's core.Config: defaults, then
// environment variables, then functional options, each layer
// overriding the one before it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every knob the cascade platform's ambient components
// need to start: the demo HTTP surface, Redis-backed stores, logging,
// telemetry, and the resilience defaults used by the classification
// cache.
type Config struct {
	Name      string `json:"name"`
	Port      int    `json:"port"`
	Address   string `json:"address"`

	Redis      RedisConfig      `json:"redis"`
	Logging    LoggingConfig    `json:"logging"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
	Resilience ResilienceConfig `json:"resilience"`
	HumanTask  HumanTaskConfig  `json:"human_task"`
	Classify   ClassifyConfig   `json:"classify"`
}

// RedisConfig configures the shared Redis client used by the durable
// human task store and classification cache.
type RedisConfig struct {
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// LoggingConfig configures the logger package.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// TelemetryConfig configures the telemetry package's OTel provider.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"service_name"`
}

// ResilienceConfig configures the default circuit breaker/retry that
// guard the classification cache's producer call. The human task
// coordinator's delivery fabric calls are not wrapped by them.
type ResilienceConfig struct {
	ErrorThreshold  float64       `json:"error_threshold"`
	VolumeThreshold int           `json:"volume_threshold"`
	SleepWindow     time.Duration `json:"sleep_window"`
	RetryAttempts   int           `json:"retry_attempts"`
	RetryDelay      time.Duration `json:"retry_delay"`
}

// HumanTaskConfig configures the human task coordinator's expiry
// sweep.
type HumanTaskConfig struct {
	ExpiryPollInterval time.Duration `json:"expiry_poll_interval"`
	DefaultTTL         time.Duration `json:"default_ttl"`
}

// ClassifyConfig configures the classification cache's default TTL.
type ClassifyConfig struct {
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns the baseline configuration before environment
// variables or functional options are applied.
func DefaultConfig() *Config {
	return &Config{
		Name:    "cascade-engine",
		Port:    8080,
		Address: "localhost",
		Redis: RedisConfig{
			URL:     "redis://localhost:6379",
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "cascade-engine",
		},
		Resilience: ResilienceConfig{
			ErrorThreshold:  0.5,
			VolumeThreshold: 10,
			SleepWindow:     30 * time.Second,
			RetryAttempts:   3,
			RetryDelay:      1 * time.Second,
		},
		HumanTask: HumanTaskConfig{
			ExpiryPollInterval: 5 * time.Second,
			DefaultTTL:         24 * time.Hour,
		},
		Classify: ClassifyConfig{
			CacheTTL: 10 * time.Minute,
		},
	}
}

// LoadFromEnv overlays CASCADE_*-prefixed environment variables (and a
// couple of standard names, REDIS_URL) onto c, matching the teacher's
// naming convention of a framework prefix plus common fallbacks.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CASCADE_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("CASCADE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CASCADE_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("CASCADE_ADDRESS"); v != "" {
		c.Address = v
	}
	if v := firstNonEmpty(os.Getenv("CASCADE_REDIS_URL"), os.Getenv("REDIS_URL")); v != "" {
		c.Redis.URL = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CASCADE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CASCADE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CASCADE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("CASCADE_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("CASCADE_HUMAN_TASK_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CASCADE_HUMAN_TASK_TTL: %w", err)
		}
		c.HumanTask.DefaultTTL = d
	}
	if v := os.Getenv("CASCADE_CLASSIFY_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CASCADE_CLASSIFY_CACHE_TTL: %w", err)
		}
		c.Classify.CacheTTL = d
	}

	return c.Validate()
}

// Validate reports whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: Name must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: Port %d out of range", c.Port)
	}
	if c.Resilience.ErrorThreshold <= 0 || c.Resilience.ErrorThreshold > 1 {
		return fmt.Errorf("config: Resilience.ErrorThreshold must be in (0,1]")
	}
	return nil
}

// Option mutates a Config, applied after defaults and environment
// variables so functional options always win, matching the teacher's
// three-layer precedence.
type Option func(*Config)

// WithName overrides the service name.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithPort overrides the listen port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithRedisURL enables and points the Redis-backed stores at url.
func WithRedisURL(url string) Option {
	return func(c *Config) {
		c.Redis.URL = url
		c.Redis.Enabled = true
	}
}

// WithLogLevel overrides the logger's level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.Logging.Level = level }
}

// WithTelemetry enables telemetry under the given service name.
func WithTelemetry(serviceName string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = true
		c.Telemetry.ServiceName = serviceName
	}
}

// WithHumanTaskTTL overrides the default human task deadline.
func WithHumanTaskTTL(ttl time.Duration) Option {
	return func(c *Config) { c.HumanTask.DefaultTTL = ttl }
}

// New builds a Config from defaults, then environment variables, then
// opts, validating the result.
func New(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.LoadFromEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
