package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. It is read once at process
// start and never consulted per call.
type Config struct {
	// Server
	ServerPort string `yaml:"server_port"`

	// Orchestration mode: synthetic generator or live upstream
	UseSynthetic bool `yaml:"use_synthetic"`

	// Upstream orchestrator
	UpstreamURL     string        `yaml:"upstream_url"`
	UpstreamPath    string        `yaml:"upstream_path"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// Synthetic latency
	SyntheticCreateDelay time.Duration `yaml:"synthetic_create_delay"`
	SyntheticReadDelay   time.Duration `yaml:"synthetic_read_delay"`

	// Polling cadence used by clients
	PollInterval time.Duration `yaml:"poll_interval"`

	// Optional Postgres audit trail for job events
	EventsDatabaseURL string `yaml:"events_database_url"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerPort:           "8080",
		UseSynthetic:         true,
		UpstreamURL:          "http://localhost:8000",
		UpstreamPath:         "/orchestrate",
		UpstreamTimeout:      120 * time.Second,
		SyntheticCreateDelay: 800 * time.Millisecond,
		SyntheticReadDelay:   500 * time.Millisecond,
		PollInterval:         3 * time.Second,
		LogLevel:             "info",
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.UpstreamURL = getEnv("ORCHESTRATOR_URL", c.UpstreamURL)
	c.UpstreamPath = getEnv("ORCHESTRATOR_PATH", c.UpstreamPath)
	c.EventsDatabaseURL = getEnv("EVENTS_DATABASE_URL", c.EventsDatabaseURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	// Synthetic mode stays on unless explicitly disabled
	if v := os.Getenv("USE_MOCK"); v != "" {
		c.UseSynthetic = !strings.EqualFold(v, "false")
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"UPSTREAM_TIMEOUT", &c.UpstreamTimeout},
		{"SYNTHETIC_CREATE_DELAY", &c.SyntheticCreateDelay},
		{"SYNTHETIC_READ_DELAY", &c.SyntheticReadDelay},
		{"POLL_INTERVAL", &c.PollInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative, got %s", c.UpstreamTimeout)
	}
	if c.SyntheticCreateDelay < 0 || c.SyntheticReadDelay < 0 {
		return fmt.Errorf("synthetic delays must not be negative")
	}
	if !c.UseSynthetic {
		u, err := url.Parse(c.UpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid upstream URL %q", c.UpstreamURL)
		}
	}
	if !strings.HasPrefix(c.UpstreamPath, "/") {
		return fmt.Errorf("upstream path must start with '/', got %q", c.UpstreamPath)
	}
	return nil
}

// UpstreamEndpoint returns the full URL briefs are posted to
func (c *Config) UpstreamEndpoint() string {
	return strings.TrimRight(c.UpstreamURL, "/") + c.UpstreamPath
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
