package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soundphilosopher/basic-grpc-service/internal/registry"
	"github.com/soundphilosopher/basic-grpc-service/internal/worker"
)

const defaultConfigPath = "configs/default.yaml"

// Config represents the complete service configuration.
// Maps config file fields through YAML tags.
type Config struct {
	Server struct {
		Addr              string `yaml:"addr"`
		TLSCert           string `yaml:"tls_cert"`
		TLSKey            string `yaml:"tls_key"`
		Reflection        bool   `yaml:"reflection"` // service names only, no message descriptors
		MaxConcurrentJobs int64  `yaml:"max_concurrent_jobs"` // 0 = unlimited
	} `yaml:"server"`

	Background struct {
		MinDelay       time.Duration `yaml:"min_delay"`
		MaxDelay       time.Duration `yaml:"max_delay"`
		ServiceVersion string        `yaml:"service_version"`
		RegistryLimit  int           `yaml:"registry_limit"`
	} `yaml:"background"`

	HTTP struct {
		Enabled        bool     `yaml:"enabled"`
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"` // empty = no cross-origin access
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

var (
	errTLSPair    = errors.New("server.tls_cert and server.tls_key must be set together")
	errDelayOrder = errors.New("background.min_delay must not exceed background.max_delay")
)

// defaultConfig returns the configuration used for fields a file leaves out.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:50443"
	}
	if c.Background.MinDelay == 0 && c.Background.MaxDelay == 0 {
		c.Background.MinDelay = worker.DefaultMinDelay
		c.Background.MaxDelay = worker.DefaultMaxDelay
	}
	if c.Background.ServiceVersion == "" {
		c.Background.ServiceVersion = worker.DefaultVersion
	}
	if c.Background.RegistryLimit <= 0 {
		c.Background.RegistryLimit = registry.DefaultLimit
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errTLSPair
	}
	if c.Background.MinDelay > c.Background.MaxDelay {
		return errDelayOrder
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// loadConfig reads path, fills in defaults and validates the result.
// A missing file at the default path yields the defaults.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// newLogger builds the process logger described by the log section.
func newLogger(c *Config, w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
