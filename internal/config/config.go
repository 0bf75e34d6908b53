// Package config provides configuration management for ytarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ytarr/ytarr/internal/models"
)

// Default configuration values.
const (
	defaultServerPort      = 8090
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultExtractTimeout  = 60 * time.Second
	defaultCacheTTL        = 30 * time.Minute
	defaultManifestMaxAge  = time.Hour
	defaultOwnAuthor       = "slyguy"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Subtitles SubtitlesConfig `mapstructure:"subtitles"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Addons    AddonsConfig    `mapstructure:"addons"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the extraction cache database configuration.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	ManifestDir string `mapstructure:"manifest_dir"`
	// ManifestMaxAge bounds how long staged manifests are kept before the
	// scheduled prune removes them. The signed media URLs inside expire
	// upstream anyway.
	ManifestMaxAge time.Duration `mapstructure:"manifest_max_age"`
	PruneCron      string        `mapstructure:"prune_cron"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// PlaybackConfig holds playback mode selection and intent settings.
type PlaybackConfig struct {
	Mode         string `mapstructure:"mode"`
	FallbackMode string `mapstructure:"fallback_mode"`
	IntentApp    string `mapstructure:"intent_app"`
	IntentAction string `mapstructure:"intent_action"`
}

// ExtractorConfig holds yt-dlp invocation settings.
type ExtractorConfig struct {
	Binary   string        `mapstructure:"binary"`
	Cookies  string        `mapstructure:"cookies"`
	CacheDir string        `mapstructure:"cache_dir"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SubtitlesConfig holds subtitle selection settings.
type SubtitlesConfig struct {
	Authored  bool   `mapstructure:"authored"`
	Auto      bool   `mapstructure:"auto"`
	AutoLabel string `mapstructure:"auto_label"`
}

// CacheConfig holds extraction result cache settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	PruneCron string        `mapstructure:"prune_cron"`
}

// AddonConfig describes one installed add-on for redirect detection.
type AddonConfig struct {
	ID     string `mapstructure:"id"`
	Author string `mapstructure:"author"`
}

// AddonsConfig holds the add-on registry used by the redirect guard.
type AddonsConfig struct {
	OwnAuthor string        `mapstructure:"own_author"`
	Installed []AddonConfig `mapstructure:"installed"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with YTARR_ and use underscores for
// nesting. Example: YTARR_SERVER_PORT=8090.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings. Without an explicit path the file is searched
	// as ".ytarr.yaml" in the home directory, the working directory, and
	// /etc/ytarr.
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".ytarr")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ytarr")
	}

	// Environment variable settings
	v.SetEnvPrefix("YTARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults
// are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	// Database defaults
	v.SetDefault("database.dsn", "ytarr.db")
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.manifest_dir", "manifests")
	v.SetDefault("storage.manifest_max_age", defaultManifestMaxAge)
	v.SetDefault("storage.prune_cron", "0 */15 * * * *")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Playback defaults
	v.SetDefault("playback.mode", models.ModeExtract.String())
	v.SetDefault("playback.fallback_mode", "")
	v.SetDefault("playback.intent_app", "")
	v.SetDefault("playback.intent_action", "android.intent.action.VIEW")

	// Extractor defaults
	v.SetDefault("extractor.binary", "yt-dlp")
	v.SetDefault("extractor.cookies", "")
	v.SetDefault("extractor.cache_dir", "")
	v.SetDefault("extractor.timeout", defaultExtractTimeout)

	// Subtitle defaults
	v.SetDefault("subtitles.authored", true)
	v.SetDefault("subtitles.auto", false)
	v.SetDefault("subtitles.auto_label", "auto-translated")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", defaultCacheTTL)
	v.SetDefault("cache.prune_cron", "0 0 * * * *")

	// Add-on registry defaults
	v.SetDefault("addons.own_author", defaultOwnAuthor)
	v.SetDefault("addons.installed", []AddonConfig{})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	// Database validation
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Playback validation
	if !models.PlaybackMode(c.Playback.Mode).Valid() {
		return fmt.Errorf("playback.mode %q is not a known playback mode", c.Playback.Mode)
	}
	if c.Playback.FallbackMode != "" {
		if !models.PlaybackMode(c.Playback.FallbackMode).Valid() {
			return fmt.Errorf("playback.fallback_mode %q is not a known playback mode", c.Playback.FallbackMode)
		}
		if c.Playback.FallbackMode == c.Playback.Mode {
			return fmt.Errorf("playback.fallback_mode must differ from playback.mode")
		}
	}
	if models.PlaybackMode(c.Playback.Mode) == models.ModeIntent && c.Playback.IntentApp == "" {
		return fmt.Errorf("playback.intent_app is required for intent mode")
	}

	// Extractor validation
	if c.Extractor.Binary == "" {
		return fmt.Errorf("extractor.binary is required")
	}
	if c.Extractor.Timeout <= 0 {
		return fmt.Errorf("extractor.timeout must be positive")
	}

	// Cache validation
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ManifestPath returns the full path to the staged manifest directory.
func (c *StorageConfig) ManifestPath() string {
	return filepath.Join(c.BaseDir, c.ManifestDir)
}
