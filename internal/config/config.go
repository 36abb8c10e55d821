// Package config provides typed application configuration loaded through viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Server   ServerConfig   `mapstructure:"server"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ScraperConfig holds the scraping tunables. Defaults mirror the production
// values the job runner has been operated with.
type ScraperConfig struct {
	// BatchSize is the number of players attempted per invocation.
	BatchSize int `mapstructure:"batch_size"`
	// MinDelay and MaxDelay bound the randomized pause between players.
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	// RequestTimeout bounds a single page fetch.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxRetries is the retry cap per player.
	MaxRetries int `mapstructure:"max_retries"`
	// BaseRetryDelay and MaxRetryDelay parameterize the exponential backoff.
	BaseRetryDelay time.Duration `mapstructure:"base_retry_delay"`
	MaxRetryDelay  time.Duration `mapstructure:"max_retry_delay"`
	// ErrorThresholdPercent is the error rate that flags slow mode.
	ErrorThresholdPercent float64 `mapstructure:"error_threshold_percent"`
	// MaxConsecutiveRateLimits trips the circuit breaker and pauses the job.
	MaxConsecutiveRateLimits int `mapstructure:"max_consecutive_rate_limits"`
	// Referer is sent with every page fetch.
	Referer string `mapstructure:"referer"`
	// CronSchedule drives automatic batch processing in serve mode.
	CronSchedule string `mapstructure:"cron_schedule"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	// AdminToken authorizes the mutating control routes.
	AdminToken string `mapstructure:"admin_token"`
	// CronSecret authorizes the cron trigger route.
	CronSecret string `mapstructure:"cron_secret"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "scoutdeck")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("scraper.batch_size", 100)
	v.SetDefault("scraper.min_delay", 5*time.Second)
	v.SetDefault("scraper.max_delay", 15*time.Second)
	v.SetDefault("scraper.request_timeout", 30*time.Second)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.base_retry_delay", 5*time.Second)
	v.SetDefault("scraper.max_retry_delay", 2*time.Minute)
	v.SetDefault("scraper.error_threshold_percent", 20.0)
	v.SetDefault("scraper.max_consecutive_rate_limits", 5)
	v.SetDefault("scraper.referer", "https://www.transfermarkt.es/")
	v.SetDefault("scraper.cron_schedule", "0 2 * * *")

	v.SetDefault("server.address", ":8080")
}

// Load unmarshals the full configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Scraper.BatchSize <= 0 {
		return fmt.Errorf("scraper.batch_size must be positive, got %d", c.Scraper.BatchSize)
	}
	if c.Scraper.MinDelay > c.Scraper.MaxDelay {
		return fmt.Errorf("scraper.min_delay %s exceeds scraper.max_delay %s", c.Scraper.MinDelay, c.Scraper.MaxDelay)
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must not be negative, got %d", c.Scraper.MaxRetries)
	}
	if c.Scraper.MaxConsecutiveRateLimits <= 0 {
		return fmt.Errorf("scraper.max_consecutive_rate_limits must be positive, got %d", c.Scraper.MaxConsecutiveRateLimits)
	}
	return nil
}
