package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "albumsync"

// StoreBackend identifies the local cache implementation
type StoreBackend string

const (
	StoreBackendBolt   StoreBackend = "bolt"
	StoreBackendSQLite StoreBackend = "sqlite"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds metadata service configuration
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Key           string        `mapstructure:"key"`
	HL            string        `mapstructure:"hl"` // Interface language
	GL            string        `mapstructure:"gl"` // Content region
	ClientName    string        `mapstructure:"client_name"`
	ClientVersion string        `mapstructure:"client_version"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds local cache configuration
type StoreConfig struct {
	Backend StoreBackend `mapstructure:"backend"` // "bolt" or "sqlite"
	Dir     string       `mapstructure:"dir"`     // Empty keeps the bolt cache in memory
}

// SyncConfig holds batch sync configuration
type SyncConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			HL:            "en",
			GL:            "US",
			ClientName:    "WEB_REMIX",
			ClientVersion: "1.20240101.01.00",
			Timeout:       30 * time.Second,
		},
		Store: StoreConfig{
			Backend: StoreBackendBolt,
			Dir:     defaultCachePath(),
		},
		Sync: SyncConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// newViper returns a viper instance seeded with the defaults so every key
// can be overridden from the environment (ALBUMSYNC_API_KEY etc).
func newViper() *viper.Viper {
	def := DefaultConfig()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.key", def.API.Key)
	v.SetDefault("api.hl", def.API.HL)
	v.SetDefault("api.gl", def.API.GL)
	v.SetDefault("api.client_name", def.API.ClientName)
	v.SetDefault("api.client_version", def.API.ClientVersion)
	v.SetDefault("api.timeout", def.API.Timeout)
	v.SetDefault("store.backend", string(def.Store.Backend))
	v.SetDefault("store.dir", def.Store.Dir)
	v.SetDefault("sync.workers", def.Sync.Workers)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)
	return v
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the user config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigFile is where LoadConfig looks first and SaveConfig writes by default
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// SaveConfig writes cfg as YAML. An empty path writes to DefaultConfigFile.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.key", cfg.API.Key)
	v.Set("api.hl", cfg.API.HL)
	v.Set("api.gl", cfg.API.GL)
	v.Set("api.client_name", cfg.API.ClientName)
	v.Set("api.client_version", cfg.API.ClientVersion)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("store.backend", string(cfg.Store.Backend))
	v.Set("store.dir", cfg.Store.Dir)
	v.Set("sync.workers", cfg.Sync.Workers)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendBolt, StoreBackendSQLite:
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	if c.Sync.Workers < 0 {
		return fmt.Errorf("sync.workers must not be negative, got %d", c.Sync.Workers)
	}
	return nil
}

// IsConfigured returns true if the metadata service URL is set
func (c *Config) IsConfigured() bool {
	return c.API.BaseURL != ""
}
