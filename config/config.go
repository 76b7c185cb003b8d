package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	USDA      USDAConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Nutrition NutritionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// USDAConfig holds USDA API configuration. An empty APIKey disables imports.
type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Enabled reports whether USDA imports are configured
func (c USDAConfig) Enabled() bool {
	return c.APIKey != ""
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	USDA  int `mapstructure:"usda"`   // requests per hour
}

// StorageConfig holds the SQLite location
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// NutritionConfig holds engine settings
type NutritionConfig struct {
	RDAFile         string `mapstructure:"rda_file"`
	DefaultTimezone string `mapstructure:"default_timezone"`
	EntryLimit      int    `mapstructure:"entry_limit"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/vitalsync/")

	// VITALSYNC_SERVER_PORT maps to server.port
	v.SetEnvPrefix("VITALSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.usda", 1000)

	v.SetDefault("storage.path", "vitalsync.db")

	v.SetDefault("nutrition.rda_file", "")
	v.SetDefault("nutrition.default_timezone", "UTC")
	v.SetDefault("nutrition.entry_limit", 500)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "memory" && config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.USDA < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required (set VITALSYNC_STORAGE_PATH)")
	}

	if _, err := time.LoadLocation(config.Nutrition.DefaultTimezone); err != nil || config.Nutrition.DefaultTimezone == "" {
		return fmt.Errorf("invalid default timezone: %q", config.Nutrition.DefaultTimezone)
	}

	if config.Nutrition.EntryLimit <= 0 {
		return fmt.Errorf("nutrition entry limit must be positive, got: %d", config.Nutrition.EntryLimit)
	}

	return nil
}
