package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fsgate/internal/logging"
	"fsgate/pkg/fileops"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "fsgate" // application name used for config directory

const (
	DefaultRoot        = "/projects"
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultHTTPAddr    = "127.0.0.1:8080"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the gateway configuration.
//
// Values are layered: DefaultConfig, then the YAML file, then the
// environment, then command line flags.
type Config struct {
	// AllowedDirectories are the roots every operation is confined to.
	// ALLOWED_DIRECTORIES is comma separated.
	AllowedDirectories []string `yaml:"allowed_directories" envconfig:"ALLOWED_DIRECTORIES"`
	// MaxFileSize is the largest file, in bytes, that read will return.
	MaxFileSize int64  `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE"`
	LogLevel    string `yaml:"log_level" envconfig:"FSGATE_LOG_LEVEL"`
	Transport   string `yaml:"transport" envconfig:"FSGATE_TRANSPORT"`
	HTTPAddr    string `yaml:"http_addr" envconfig:"FSGATE_HTTP_ADDR"`
	// LockDir holds the advisory lock files used to serialize writers.
	LockDir string `yaml:"lock_dir" envconfig:"FSGATE_LOCK_DIR"`
	Version string `yaml:"version" ignored:"true"`
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() string {
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultLockDir is the lock directory used when none is configured.
func DefaultLockDir() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, APP_NAME, "locks")
	}
	return filepath.Join(os.TempDir(), APP_NAME+"-locks")
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		AllowedDirectories: []string{DefaultRoot},
		MaxFileSize:        DefaultMaxFileSize,
		LogLevel:           "warn",
		Transport:          TransportStdio,
		HTTPAddr:           DefaultHTTPAddr,
		LockDir:            DefaultLockDir(),
		Version:            "1.0",
	}
}

// Load builds the effective configuration: defaults, then the file at path
// (the standard location when path is empty; a missing standard file is not
// an error), then environment overrides. The result is normalized and
// validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	} else {
		logging.Debug("No config file, using defaults", "path", path)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom loads config from a specific path, without defaults or
// environment overrides.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	logging.Info("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from their environment variables. Variables that
// are not set leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Normalize trims and splits root entries, expands "~" and makes every root
// absolute. Empty entries left by a trailing comma are dropped.
func (c *Config) Normalize() error {
	roots := make([]string, 0, len(c.AllowedDirectories))
	for _, entry := range c.AllowedDirectories {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			abs, err := filepath.Abs(fileops.ExpandPath(part))
			if err != nil {
				return fmt.Errorf("failed to resolve allowed directory %q: %w", part, err)
			}
			roots = append(roots, abs)
		}
	}
	c.AllowedDirectories = roots

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.LockDir != "" {
		c.LockDir = fileops.ExpandPath(c.LockDir)
	}
	return nil
}

// Validate rejects configurations the gateway cannot start with.
func (c *Config) Validate() error {
	if len(c.AllowedDirectories) == 0 {
		return fmt.Errorf("at least one allowed directory is required")
	}
	for _, dir := range c.AllowedDirectories {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("allowed directory cannot be empty")
		}
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize)
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
