package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Scraper.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Scraper.MinDelay)
	assert.Equal(t, 15*time.Second, cfg.Scraper.MaxDelay)
	assert.Equal(t, 30*time.Second, cfg.Scraper.RequestTimeout)
	assert.Equal(t, 3, cfg.Scraper.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.Scraper.MaxRetryDelay)
	assert.Equal(t, 5, cfg.Scraper.MaxConsecutiveRateLimits)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestValidateRejectsBadDelays(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("scraper.min_delay", 20*time.Second)
	v.Set("scraper.max_delay", 5*time.Second)

	_, err := config.Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_delay")
}

func TestValidateRejectsZeroBatchSize(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("scraper.batch_size", 0)

	_, err := config.Load(v)
	require.Error(t, err)
}
