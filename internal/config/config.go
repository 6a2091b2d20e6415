package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	DataDir        string        `mapstructure:"DATA_DIR"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	// Fixed device location for geofence checks. Zero values mean no
	// location source is available.
	LocationLat float64 `mapstructure:"LOCATION_LAT"`
	LocationLng float64 `mapstructure:"LOCATION_LNG"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("API_BASE_URL")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("DATA_DIR")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("LOCATION_LAT")
	v.BindEnv("LOCATION_LNG")
	v.BindEnv("OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("OTEL_EXPORTER_OTLP_INSECURE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".antrian-rs")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return cfg, nil
}

// HasLocation reports whether a fixed device location is configured.
func (c *Config) HasLocation() bool {
	return c.LocationLat != 0 || c.LocationLng != 0
}

// SessionPath is where the authenticated staff session is persisted.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}
