package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the endpoints of the marketplace backend.
type ServerConfig struct {
	// APIBaseURL is the root URL of the REST API
	// (e.g., https://api.market.example.com).
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// SocketURL is the websocket endpoint of the notification server
	// (e.g., wss://api.market.example.com/socket).
	SocketURL string `mapstructure:"socket_url" yaml:"socket_url"`
}

// RealtimeConfig controls the reconnect policy applied by the app
// around the notification session. The session itself never
// reconnects on its own.
type RealtimeConfig struct {
	// ReconnectInitialSec is the first backoff interval after a drop.
	ReconnectInitialSec int `mapstructure:"reconnect_initial_sec" yaml:"reconnect_initial_sec"`

	// ReconnectMaxSec caps the backoff interval.
	ReconnectMaxSec int `mapstructure:"reconnect_max_sec" yaml:"reconnect_max_sec"`

	// FallbackPollSec is how often the REST fallback poller fetches
	// notifications while the socket is down.
	FallbackPollSec int `mapstructure:"fallback_poll_sec" yaml:"fallback_poll_sec"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// LoggingConfig controls the file-backed logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/marketdesk/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "marketdesk", "config.yaml")
}

// DefaultLogPath returns the default path for the log file.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "marketdesk.log")
	}
	return filepath.Join(home, ".local", "state", "marketdesk", "marketdesk.log")
}

// DefaultArchivePath returns the default path for the local
// notification history database.
func DefaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "archive.db")
	}
	return filepath.Join(home, ".local", "state", "marketdesk", "archive.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			APIBaseURL: "http://localhost:4000/api",
			SocketURL:  "ws://localhost:4000/socket",
		},
		Realtime: RealtimeConfig{
			ReconnectInitialSec: 2,
			ReconnectMaxSec:     60,
			FallbackPollSec:     30,
		},
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  DefaultLogPath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("server.api_base_url", def.Server.APIBaseURL)
	v.SetDefault("server.socket_url", def.Server.SocketURL)
	v.SetDefault("realtime.reconnect_initial_sec", def.Realtime.ReconnectInitialSec)
	v.SetDefault("realtime.reconnect_max_sec", def.Realtime.ReconnectMaxSec)
	v.SetDefault("realtime.fallback_poll_sec", def.Realtime.FallbackPollSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.page_size", def.Display.PageSize)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("realtime", cfg.Realtime)
	v.Set("display", cfg.Display)
	v.Set("logging", cfg.Logging)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
