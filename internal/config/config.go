package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	docimg "github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/scanner"
)

// Config holds the application configuration
type Config struct {
	Detection scanner.Options `yaml:"detection"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// OutputConfig holds configuration for written documents
type OutputConfig struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
	Dir     string `yaml:"dir"`
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RateLimit is the sustained requests per second allowed per client IP.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	MaxUploadMB int `yaml:"max_upload_mb"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detection: scanner.DefaultOptions(),
		Output: OutputConfig{
			Format:  "jpg",
			Quality: docimg.DefaultQuality,
			Dir:     "./output",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			RateLimit:   5,
			Burst:       10,
			MaxUploadMB: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}

	if _, err := docimg.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be positive")
	}

	if c.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be at least 1")
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./docscan.yaml"
	}
	return filepath.Join(home, ".config", "docscan", "config.yaml")
}
