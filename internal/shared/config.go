package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override catalog credentials from the config file.
const (
	EnvCatalogToken  = "CINX_TMDB_TOKEN"
	EnvCatalogAPIKey = "CINX_TMDB_API_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// CatalogConfig contains settings for the remote movie catalog.
type CatalogConfig struct {
	BaseURL        string  `toml:"base_url"`
	ImageBaseURL   string  `toml:"image_base_url"`
	APIKey         string  `toml:"api_key"`
	AccessToken    string  `toml:"access_token"`
	Language       string  `toml:"language"`
	Region         string  `toml:"region"`
	PosterSize     string  `toml:"poster_size"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout for catalog requests.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains log level and the file used while the TUI is running.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides catalog credentials with values from the environment, when set.
func (c *Config) ApplyEnv() {
	if token := os.Getenv(EnvCatalogToken); token != "" {
		c.Catalog.AccessToken = token
	}
	if key := os.Getenv(EnvCatalogAPIKey); key != "" {
		c.Catalog.APIKey = key
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
