package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "raw_data_sources/google-political-ads-advertiser-stats.csv", cfg.Data.AdvertisersCSV)
	assert.Equal(t, "extracted_data", cfg.Data.ExtractedDataDir)
	assert.Equal(t, "valid_eins.csv", cfg.Data.ValidEINs)
	assert.Equal(t, "invalid_eins.csv", cfg.Data.InvalidEINs)
	assert.Equal(t, "https://projects.propublica.org/nonprofits/api/v2/organizations", cfg.Registry.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, filepath.Join("extracted_data", "advertisers_ein_us.csv"), cfg.EINAdvertisersPath())
	assert.Equal(t, filepath.Join("extracted_data", "advertisers_fec_us.csv"), cfg.FECAdvertisersPath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("EXTRACTED_DATA_DIR", "out")
	t.Setenv("REGISTRY_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, filepath.Join("out", "advertisers_ein_us.csv"), cfg.EINAdvertisersPath())
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
