package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EINAdvertisersFile = "advertisers_ein_us.csv"
	FECAdvertisersFile = "advertisers_fec_us.csv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Data struct {
		AdvertisersCSV   string `env:"ADVERTISERS_CSV_PATH" envDefault:"raw_data_sources/google-political-ads-advertiser-stats.csv"`
		ExtractedDataDir string `env:"EXTRACTED_DATA_DIR" envDefault:"extracted_data"`
		ValidEINs        string `env:"VALID_EINS_PATH" envDefault:"valid_eins.csv"`
		InvalidEINs      string `env:"INVALID_EINS_PATH" envDefault:"invalid_eins.csv"`
	}

	Registry struct {
		BaseURL string        `env:"REGISTRY_BASE_URL" envDefault:"https://projects.propublica.org/nonprofits/api/v2/organizations"`
		Timeout time.Duration `env:"REGISTRY_TIMEOUT" envDefault:"30s"`
	}

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	// Пустой адрес отключает публикацию результатов в стрим
	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		ValidationStream string `env:"VALIDATION_STREAM" envDefault:"nonprofit:validations"`
		RequestStream    string `env:"REQUEST_STREAM" envDefault:"nonprofit:validation_requests"`
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional, in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// EINAdvertisersPath is where US advertisers with an EIN are written.
func (c *Config) EINAdvertisersPath() string {
	return filepath.Join(c.Data.ExtractedDataDir, EINAdvertisersFile)
}

// FECAdvertisersPath is where US advertisers with an FEC ID are written.
func (c *Config) FECAdvertisersPath() string {
	return filepath.Join(c.Data.ExtractedDataDir, FECAdvertisersFile)
}

// RedisEnabled reports whether the validation event stream is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
