package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Gateway mode constants.
const (
	GatewayModeSQLite = "sqlite"
	GatewayModeHTTP   = "http"
)

// GatewayConfig selects and configures the remote gateway implementation.
type GatewayConfig struct {
	// Mode is either "sqlite" (embedded driver) or "http".
	Mode string `mapstructure:"mode" yaml:"mode"`

	// DBPath is the SQLite database file path (sqlite mode).
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// BaseURL is the root URL of the hosted store (http mode).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each gateway call.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// FeedConfig configures the change-feed subscription.
type FeedConfig struct {
	// URL is the websocket endpoint delivering change events (http mode).
	URL string `mapstructure:"url" yaml:"url"`

	// BufferSize is the per-subscription event channel capacity.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Workspace is the tenant partition all entities are scoped to.
	Workspace string `mapstructure:"workspace" yaml:"workspace"`

	Gateway GatewayConfig `mapstructure:"gateway" yaml:"gateway"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planhub/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "planhub", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Workspace: "default",
		Gateway: GatewayConfig{
			Mode:       GatewayModeSQLite,
			DBPath:     filepath.Join(".", "planhub.db"),
			TimeoutSec: 30,
		},
		Feed: FeedConfig{
			BufferSize: 64,
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
	v.SetDefault("workspace", "default")
	v.SetDefault("gateway.mode", GatewayModeSQLite)
	v.SetDefault("gateway.db_path", filepath.Join(".", "planhub.db"))
	v.SetDefault("gateway.timeout_sec", 30)
	v.SetDefault("feed.buffer_size", 64)

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

	if cfg.Gateway.TimeoutSec <= 0 {
		cfg.Gateway.TimeoutSec = 30
	}
	if cfg.Feed.BufferSize <= 0 {
		cfg.Feed.BufferSize = 64
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

	v.Set("workspace", cfg.Workspace)
	v.Set("gateway", cfg.Gateway)
	v.Set("feed", cfg.Feed)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
