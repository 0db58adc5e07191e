// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultDataDir returns the default directory for client data.
// Uses ~/.daemonlink/ so data is in a fixed location regardless of CWD.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".daemonlink")
}

// Config holds all configuration for the daemon client.
type Config struct {
	// Daemon
	DaemonNetwork string `mapstructure:"daemon_network"`
	DaemonAddress string `mapstructure:"daemon_address"`

	// Paths
	StorePath string `mapstructure:"store_path"`

	// Connection
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	BootTimeout    time.Duration `mapstructure:"boot_timeout"`

	// Reconnection
	ReconnectMaxRetries int           `mapstructure:"reconnect_max_retries"`
	ReconnectBaseDelay  time.Duration `mapstructure:"reconnect_base_delay"`
	ReconnectMaxDelay   time.Duration `mapstructure:"reconnect_max_delay"`

	// Flag transitions outside the conventional order
	TransitionWarnings bool `mapstructure:"transition_warnings"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Metrics
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	MetricsPort    int  `mapstructure:"metrics_port"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		DaemonNetwork:       "unix",
		DaemonAddress:       filepath.Join(dataDir, "daemon.sock"),
		StorePath:           filepath.Join(dataDir, "client.db"),
		ConnectTimeout:      5 * time.Second,
		BootTimeout:         30 * time.Second,
		ReconnectMaxRetries: 10,
		ReconnectBaseDelay:  500 * time.Millisecond,
		ReconnectMaxDelay:   30 * time.Second,
		TransitionWarnings:  true,
		LogLevel:            "info",
		LogFormat:           "json",
		MetricsEnabled:      false,
		MetricsPort:         9090,
	}
}

// LoadConfig loads configuration from file, environment, and defaults.
// Priority: CLI flags > Environment > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("daemon_network", defaults.DaemonNetwork)
	v.SetDefault("daemon_address", defaults.DaemonAddress)
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("connect_timeout", defaults.ConnectTimeout)
	v.SetDefault("boot_timeout", defaults.BootTimeout)
	v.SetDefault("reconnect_max_retries", defaults.ReconnectMaxRetries)
	v.SetDefault("reconnect_base_delay", defaults.ReconnectBaseDelay)
	v.SetDefault("reconnect_max_delay", defaults.ReconnectMaxDelay)
	v.SetDefault("transition_warnings", defaults.TransitionWarnings)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)
	v.SetDefault("metrics_port", defaults.MetricsPort)

	// Environment variables with DAEMONLINK_ prefix
	v.SetEnvPrefix("DAEMONLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file falls back to built-in defaults.
			isNotFound := errors.Is(err, os.ErrNotExist)
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.LogFormat)
	}

	switch c.DaemonNetwork {
	case "unix", "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("invalid daemon network: %s (must be unix, tcp, tcp4 or tcp6)", c.DaemonNetwork)
	}

	if c.DaemonAddress == "" {
		return fmt.Errorf("daemon address is required")
	}

	// Validate metrics port
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d (must be 0-65535)", c.MetricsPort)
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.BootTimeout <= 0 {
		return fmt.Errorf("boot timeout must be positive")
	}

	// Validate reconnect settings
	if c.ReconnectMaxRetries < 0 {
		return fmt.Errorf("reconnect max retries must be non-negative")
	}

	if c.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("reconnect base delay must be positive")
	}

	if c.ReconnectMaxDelay <= 0 {
		return fmt.Errorf("reconnect max delay must be positive")
	}

	if c.ReconnectBaseDelay > c.ReconnectMaxDelay {
		return fmt.Errorf("reconnect base delay must be less than or equal to max delay")
	}

	return nil
}
