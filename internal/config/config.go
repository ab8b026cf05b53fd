// Package config provides configuration management for the item catalog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultServerPort        = 8080
	DefaultProbePort         = 9090
	DefaultLogLevel          = "info"
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMetricsEnabled    = true
	DefaultAppName           = "Item Catalog"
	DefaultAppVersion        = "0.1.0"
	DefaultAPIPrefix         = "/api/v1"
	DefaultPageLimit         = 100
	DefaultEventsEnabled     = true
	DefaultEventBufferSize   = 64
	DefaultCORSAllowedOrigin = "*"
)

// Environment variable names.
const (
	EnvConfigFile         = "APP_CONFIG_FILE"
	EnvServerPort         = "APP_SERVER_PORT"
	EnvProbePort          = "APP_PROBE_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvDebug              = "APP_DEBUG"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvAppName            = "APP_NAME"
	EnvAppVersion         = "APP_VERSION"
	EnvAPIPrefix          = "APP_API_PREFIX"
	EnvDefaultPageLimit   = "APP_DEFAULT_PAGE_LIMIT"
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
	EnvEventsEnabled      = "APP_EVENTS_ENABLED"
	EnvEventBufferSize    = "APP_EVENT_BUFFER_SIZE"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int           `yaml:"server_port"`
	ProbePort       int           `yaml:"probe_port"` // Probe server port (0 = disabled).
	LogLevel        string        `yaml:"log_level"`
	Debug           bool          `yaml:"debug"` // Forces debug logging.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`

	// Application settings.
	AppName            string   `yaml:"app_name"`
	AppVersion         string   `yaml:"app_version"`
	APIPrefix          string   `yaml:"api_prefix"`
	DefaultPageLimit   int      `yaml:"default_page_limit"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Item event stream settings.
	EventsEnabled   bool `yaml:"events_enabled"`
	EventBufferSize int  `yaml:"event_buffer_size"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidProbePort       = errors.New(
		"probe port must be between 0 and 65535",
	)
	ErrProbePortConflict = errors.New(
		"probe port must differ from server port when probe port is not 0",
	)
	ErrInvalidAPIPrefix = errors.New(
		"API prefix must start with / and must not end with /",
	)
	ErrInvalidPageLimit   = errors.New("default page limit must not be negative")
	ErrInvalidAppName     = errors.New("app name must not be empty")
	ErrInvalidEventBuffer = errors.New("event buffer size must be positive")
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		ServerPort:         DefaultServerPort,
		ProbePort:          DefaultProbePort,
		LogLevel:           DefaultLogLevel,
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     DefaultMetricsEnabled,
		AppName:            DefaultAppName,
		AppVersion:         DefaultAppVersion,
		APIPrefix:          DefaultAPIPrefix,
		DefaultPageLimit:   DefaultPageLimit,
		CORSAllowedOrigins: []string{DefaultCORSAllowedOrigin},
		EventsEnabled:      DefaultEventsEnabled,
		EventBufferSize:    DefaultEventBufferSize,
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// APP_CONFIG_FILE, and environment variables, in increasing priority.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFile overlays values from a YAML file. Keys absent from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadAppEnv(); err != nil {
		return err
	}

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if err := envInt(EnvServerPort, &c.ServerPort); err != nil {
		return err
	}

	if err := envInt(EnvProbePort, &c.ProbePort); err != nil {
		return err
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if err := envBool(EnvDebug, &c.Debug); err != nil {
		return err
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	return envBool(EnvMetricsEnabled, &c.MetricsEnabled)
}

// loadAppEnv loads application and event stream environment variables.
func (c *Config) loadAppEnv() error {
	if val := os.Getenv(EnvAppName); val != "" {
		c.AppName = val
	}

	if val := os.Getenv(EnvAppVersion); val != "" {
		c.AppVersion = val
	}

	if val := os.Getenv(EnvAPIPrefix); val != "" {
		c.APIPrefix = val
	}

	if err := envInt(EnvDefaultPageLimit, &c.DefaultPageLimit); err != nil {
		return err
	}

	if val := os.Getenv(EnvCORSAllowedOrigins); val != "" {
		c.CORSAllowedOrigins = splitList(val)
	}

	if err := envBool(EnvEventsEnabled, &c.EventsEnabled); err != nil {
		return err
	}

	return envInt(EnvEventBufferSize, &c.EventBufferSize)
}

func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = b
	return nil
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateApp()
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if c.ProbePort < 0 || c.ProbePort > 65535 {
		return ErrInvalidProbePort
	}

	if c.ProbePort != 0 && c.ProbePort == c.ServerPort {
		return ErrProbePortConflict
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateApp validates application-level configuration.
func (c *Config) validateApp() error {
	if strings.TrimSpace(c.AppName) == "" {
		return ErrInvalidAppName
	}

	if !strings.HasPrefix(c.APIPrefix, "/") || (len(c.APIPrefix) > 1 && strings.HasSuffix(c.APIPrefix, "/")) {
		return ErrInvalidAPIPrefix
	}

	if c.DefaultPageLimit < 0 {
		return ErrInvalidPageLimit
	}

	if c.EventsEnabled && c.EventBufferSize < 1 {
		return ErrInvalidEventBuffer
	}

	return nil
}

// EffectiveLogLevel returns the log level to use, honoring Debug.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.ProbePort)
}
