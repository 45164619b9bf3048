package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// PlayerConfig describes the local volunteer.
type PlayerConfig struct {
	// Name is the display name used when toggling volunteer sign-ups.
	Name string `mapstructure:"name" yaml:"name"`

	// StartingPoints seeds the ledger with a single entry.
	StartingPoints int    `mapstructure:"starting_points" yaml:"starting_points"`
	StartingLabel  string `mapstructure:"starting_label" yaml:"starting_label"`
}

// RewardsConfig holds gamification settings.
type RewardsConfig struct {
	PointsPerTask int `mapstructure:"points_per_task" yaml:"points_per_task"`
}

// AIConfig holds settings for the Gemini integration.
type AIConfig struct {
	Model string `mapstructure:"model" yaml:"model"`
}

// SearchConfig holds park discovery settings.
type SearchConfig struct {
	DefaultQuery string `mapstructure:"default_query" yaml:"default_query"`
}

// LocationConfig controls how the discovery bias point is obtained.
// A fixed Lat/Lng takes precedence over the lookup endpoint.
type LocationConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	LookupURL string   `mapstructure:"lookup_url" yaml:"lookup_url"`
	Lat       *float64 `mapstructure:"lat" yaml:"lat,omitempty"`
	Lng       *float64 `mapstructure:"lng" yaml:"lng,omitempty"`
}

// Fixed returns the configured position, if both components are set.
func (c LocationConfig) Fixed() (Coordinates, bool) {
	if c.Lat == nil || c.Lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *c.Lat, Lng: *c.Lng}, true
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	NotificationSec int `mapstructure:"notification_sec" yaml:"notification_sec"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// File is the log destination. "-" means stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// StorageConfig controls the optional on-disk snapshot.
type StorageConfig struct {
	// SnapshotPath is a SQLite file. Empty disables persistence.
	SnapshotPath string `mapstructure:"snapshot_path" yaml:"snapshot_path"`
}

// SeedConfig points at an optional YAML file replacing the built-in parks.
type SeedConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Player   PlayerConfig   `mapstructure:"player" yaml:"player"`
	Rewards  RewardsConfig  `mapstructure:"rewards" yaml:"rewards"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Location LocationConfig `mapstructure:"location" yaml:"location"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Seed     SeedConfig     `mapstructure:"seed" yaml:"seed"`
}

const (
	DefaultPlayerName     = "You"
	DefaultStartingPoints = 40
	DefaultStartingLabel  = "Joined Community Roots"
	DefaultPointsPerTask  = 10
	DefaultModel          = "gemini-2.5-flash"
	DefaultSearchQuery    = "Columbia Heights, DC"
	DefaultLookupURL      = "https://ipapi.co/json/"
	DefaultNotificationS  = 3
)

// ConfigDir returns ~/.config/community-roots, or "." when the home
// directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "community-roots")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/community-roots/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultLogPath returns the default log file location.
func DefaultLogPath() string {
	return filepath.Join(ConfigDir(), "roots.log")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Player: PlayerConfig{
			Name:           DefaultPlayerName,
			StartingPoints: DefaultStartingPoints,
			StartingLabel:  DefaultStartingLabel,
		},
		Rewards:  RewardsConfig{PointsPerTask: DefaultPointsPerTask},
		AI:       AIConfig{Model: DefaultModel},
		Search:   SearchConfig{DefaultQuery: DefaultSearchQuery},
		Location: LocationConfig{Enabled: true, LookupURL: DefaultLookupURL},
		Display:  DisplayConfig{NotificationSec: DefaultNotificationS},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
			File:     DefaultLogPath(),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("player.name", d.Player.Name)
	v.SetDefault("player.starting_points", d.Player.StartingPoints)
	v.SetDefault("player.starting_label", d.Player.StartingLabel)
	v.SetDefault("rewards.points_per_task", d.Rewards.PointsPerTask)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("search.default_query", d.Search.DefaultQuery)
	v.SetDefault("location.enabled", d.Location.Enabled)
	v.SetDefault("location.lookup_url", d.Location.LookupURL)
	v.SetDefault("display.notification_sec", d.Display.NotificationSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &pathErr) || errors.As(err, &notFound) {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Rewards.PointsPerTask <= 0 {
		cfg.Rewards.PointsPerTask = DefaultPointsPerTask
	}
	if cfg.Display.NotificationSec <= 0 {
		cfg.Display.NotificationSec = DefaultNotificationS
	}
	if cfg.Player.Name == "" {
		cfg.Player.Name = DefaultPlayerName
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

	v.Set("player", cfg.Player)
	v.Set("rewards", cfg.Rewards)
	v.Set("ai", cfg.AI)
	v.Set("search", cfg.Search)
	v.Set("location", cfg.Location)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("storage", cfg.Storage)
	v.Set("seed", cfg.Seed)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
