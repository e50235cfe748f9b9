package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the endpoints of the UniChat backend.
type ServerConfig struct {
	// APIURL is the root of the REST surface (e.g. http://host:5000/api).
	APIURL string `mapstructure:"api_url" yaml:"api_url"`

	// PushURL is the websocket endpoint of the push channel
	// (e.g. ws://host:5000/ws).
	PushURL string `mapstructure:"push_url" yaml:"push_url"`
}

// PushConfig holds push-channel tuning. The backend's true event-name
// contract is configured here rather than hardcoded: some deployments
// emit camelCase names (newPost), others kebab-case (new-post).
type PushConfig struct {
	// Naming selects the wire event-name convention: "camel" or "kebab".
	Naming string `mapstructure:"naming" yaml:"naming"`

	// ReconnectAttempts bounds automatic reconnection after a
	// transport-level disconnect.
	ReconnectAttempts int `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`

	// ReconnectDelaySec is the fixed delay between attempts.
	ReconnectDelaySec int `mapstructure:"reconnect_delay_sec" yaml:"reconnect_delay_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Push    PushConfig    `mapstructure:"push" yaml:"push"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/unichat/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "unichat", "config.yaml")
}

// DefaultCachePath returns the default path for the local cache
// database, located next to the config file.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cache.db")
	}
	return filepath.Join(home, ".config", "unichat", "cache.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			APIURL:  "http://localhost:5000/api",
			PushURL: "ws://localhost:5000/ws",
		},
		Push: PushConfig{
			Naming:            "camel",
			ReconnectAttempts: 5,
			ReconnectDelaySec: 1,
		},
		Display: DisplayConfig{
			Theme: "default",
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
	v.SetDefault("server.api_url", "http://localhost:5000/api")
	v.SetDefault("server.push_url", "ws://localhost:5000/ws")
	v.SetDefault("push.naming", "camel")
	v.SetDefault("push.reconnect_attempts", 5)
	v.SetDefault("push.reconnect_delay_sec", 1)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Push.Naming != "camel" && cfg.Push.Naming != "kebab" {
		return nil, fmt.Errorf("config %s: push.naming must be %q or %q, got %q",
			path, "camel", "kebab", cfg.Push.Naming)
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
	v.Set("push", cfg.Push)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
