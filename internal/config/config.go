package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the market dataset cache tools.
type Config struct {
	// Upstream dataset source API
	SourceAPIKey  string `mapstructure:"source_api_key"`
	SourceBaseURL string `mapstructure:"source_base_url"`

	// Redis dataset cache
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisUsername     string        `mapstructure:"redis_username"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	RedisDialTimeout  time.Duration `mapstructure:"redis_dial_timeout"`
	RedisReadTimeout  time.Duration `mapstructure:"redis_read_timeout"`
	RedisWriteTimeout time.Duration `mapstructure:"redis_write_timeout"`

	// Optional S3 archive of cached datasets (disabled when bucket is empty)
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`

	// Tickers to load/extract
	Tickers []string `mapstructure:"tickers"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - SOURCE_API_KEY
//   - SOURCE_BASE_URL (optional, defaults to production)
//   - REDIS_ADDR / REDIS_USERNAME / REDIS_PASSWORD / REDIS_DB (optional)
//   - S3_BUCKET / S3_REGION (optional, S3 archive disabled without a bucket)
func Load() (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source_base_url", "https://api.marketfeeds.dev/v1")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_dial_timeout", "5s")
	v.SetDefault("redis_read_timeout", "3s")
	v.SetDefault("redis_write_timeout", "3s")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("log_level", "info")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marketcache")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("source_api_key", "SOURCE_API_KEY")
	v.BindEnv("source_base_url", "SOURCE_BASE_URL")
	v.BindEnv("redis_addr", "REDIS_ADDR")
	v.BindEnv("redis_username", "REDIS_USERNAME")
	v.BindEnv("redis_password", "REDIS_PASSWORD")
	v.BindEnv("redis_db", "REDIS_DB")
	v.BindEnv("s3_bucket", "S3_BUCKET")
	v.BindEnv("s3_region", "S3_REGION")
	v.BindEnv("log_level", "LOG_LEVEL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	var missing []string
	if config.SourceAPIKey == "" {
		missing = append(missing, "SOURCE_API_KEY")
	}
	if config.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return config, nil
}
