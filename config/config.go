package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Marketplace MarketplaceConfig
	Matching    MatchingConfig
	Cache       CacheConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MarketplaceConfig holds storefront-related configuration
type MarketplaceConfig struct {
	DefaultDomain     string `mapstructure:"default_domain"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// MatchingConfig holds matching engine configuration
type MatchingConfig struct {
	AcceptanceThreshold float64 `mapstructure:"acceptance_threshold"`
	EnableFuzzyMatching bool    `mapstructure:"enable_fuzzy_matching"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" for now
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelfwatch/")

	v.SetEnvPrefix("SHELFWATCH")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Marketplace defaults
	v.SetDefault("marketplace.default_domain", "amazon.com")
	v.SetDefault("marketplace.requests_per_minute", 30)

	// Matching defaults
	v.SetDefault("matching.acceptance_threshold", 0.30)
	v.SetDefault("matching.enable_fuzzy_matching", true)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if t := config.Matching.AcceptanceThreshold; t <= 0 || t >= 1 {
		return fmt.Errorf("matching acceptance threshold must be in (0, 1), got: %v", t)
	}

	if config.Marketplace.RequestsPerMinute <= 0 {
		return fmt.Errorf("marketplace requests per minute must be positive, got: %d", config.Marketplace.RequestsPerMinute)
	}

	return nil
}
