package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	home, _ := os.UserHomeDir()
	assert.Equal(t, "unix", cfg.DaemonNetwork)
	assert.Equal(t, filepath.Join(home, ".daemonlink", "daemon.sock"), cfg.DaemonAddress)
	assert.Equal(t, filepath.Join(home, ".daemonlink", "client.db"), cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.BootTimeout)
	assert.Equal(t, 10, cfg.ReconnectMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.ReconnectMaxDelay)
	assert.True(t, cfg.TransitionWarnings)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 9090, cfg.MetricsPort)
}

func TestLoadConfig_FromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
daemon_network: tcp
daemon_address: 127.0.0.1:7070
store_path: /custom/client.db
connect_timeout: 2s
boot_timeout: 1m
reconnect_max_retries: 5
reconnect_base_delay: 2s
reconnect_max_delay: 10m
transition_warnings: false
log_level: debug
log_format: text
metrics_enabled: true
metrics_port: 8080
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.DaemonNetwork)
	assert.Equal(t, "127.0.0.1:7070", cfg.DaemonAddress)
	assert.Equal(t, "/custom/client.db", cfg.StorePath)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.BootTimeout)
	assert.Equal(t, 5, cfg.ReconnectMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.ReconnectBaseDelay)
	assert.Equal(t, 10*time.Minute, cfg.ReconnectMaxDelay)
	assert.False(t, cfg.TransitionWarnings)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 8080, cfg.MetricsPort)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
log_level: info
metrics_port: 9090
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set env vars to override
	t.Setenv("DAEMONLINK_LOG_LEVEL", "debug")
	t.Setenv("DAEMONLINK_METRICS_PORT", "8888")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Env vars should override file values
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8888, cfg.MetricsPort)
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".daemonlink", "client.db"), cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "unix", cfg.DaemonNetwork)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.LogLevel = "invalid"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.LogFormat = "xml"
			},
			wantErr: true,
		},
		{
			name: "invalid network",
			modify: func(c *Config) {
				c.DaemonNetwork = "udp"
			},
			wantErr: true,
		},
		{
			name: "empty address",
			modify: func(c *Config) {
				c.DaemonAddress = ""
			},
			wantErr: true,
		},
		{
			name: "invalid metrics port",
			modify: func(c *Config) {
				c.MetricsPort = -1
			},
			wantErr: true,
		},
		{
			name: "zero boot timeout",
			modify: func(c *Config) {
				c.BootTimeout = 0
			},
			wantErr: true,
		},
		{
			name: "negative reconnect retries",
			modify: func(c *Config) {
				c.ReconnectMaxRetries = -1
			},
			wantErr: true,
		},
		{
			name: "base delay above max delay",
			modify: func(c *Config) {
				c.ReconnectBaseDelay = time.Hour
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
