package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	SourcePostgres = "postgres"
	SourceREST     = "rest"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Pixel    PixelConfig    `mapstructure:"pixel"`
	Platform PlatformConfig `mapstructure:"platform"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Workers  WorkersConfig  `mapstructure:"workers"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PixelConfig holds the analytics pixel settings exposed to payload builders
type PixelConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	PixelID string `mapstructure:"pixel_id"`
}

// PlatformConfig selects and configures where catalog data is read from
type PlatformConfig struct {
	Source               string `mapstructure:"source"` // postgres or rest
	StoreCode            string `mapstructure:"store_code"`
	BaseURL              string `mapstructure:"base_url"`
	Token                string `mapstructure:"token"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Password         string `mapstructure:"password"`
	Database         int    `mapstructure:"database"`
	ConsumerGroup    string `mapstructure:"consumer_group"`
	MinIdleTime      int    `mapstructure:"min_idle_time"`
	CategoryCacheTTL int    `mapstructure:"category_cache_ttl"` // Seconds, 0 disables the cache
}

type WorkersConfig struct {
	Count int `mapstructure:"count"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Defaults and environment are enough to run
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values viper cannot check on its own
func (c *Config) Validate() error {
	switch c.Platform.Source {
	case SourcePostgres, SourceREST:
	default:
		return fmt.Errorf("unknown platform source %q", c.Platform.Source)
	}

	if c.Platform.StoreCode == "" {
		return fmt.Errorf("platform.store_code must be set")
	}

	if c.Platform.Source == SourceREST && c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url must be set for the rest source")
	}

	if c.Workers.Count < 1 {
		return fmt.Errorf("workers.count must be positive, got %d", c.Workers.Count)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("pixel.enabled", true)
	v.SetDefault("pixel.pixel_id", "")

	v.SetDefault("platform.source", SourcePostgres)
	v.SetDefault("platform.store_code", "default")
	v.SetDefault("platform.base_url", "http://localhost/rest")
	v.SetDefault("platform.token", "")
	v.SetDefault("platform.timeout", 30)
	v.SetDefault("platform.max_retries", 3)
	v.SetDefault("platform.max_requests_per_second", 20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "pixel_consumer")
	v.SetDefault("redis.min_idle_time", 120)
	v.SetDefault("redis.category_cache_ttl", 300)

	v.SetDefault("workers.count", 4)
}
