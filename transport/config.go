package transport

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// HTTPConfig controls the HTTP transport.
type HTTPConfig struct {
	// BaseURL prefixes every relative request URL.
	BaseURL      string        `env:"RESPCACHE_HTTP_BASE_URL" yaml:"base_url"`
	Timeout      time.Duration `env:"RESPCACHE_HTTP_TIMEOUT" envDefault:"30s" yaml:"timeout"`
	RetryMax     int           `env:"RESPCACHE_HTTP_RETRY_MAX" envDefault:"2" yaml:"retry_max"`
	RetryWaitMin time.Duration `env:"RESPCACHE_HTTP_RETRY_WAIT_MIN" envDefault:"100ms" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `env:"RESPCACHE_HTTP_RETRY_WAIT_MAX" envDefault:"2s" yaml:"retry_wait_max"`
}

// DefaultHTTPConfig returns the values used when nothing is configured.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:      30 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
}

// LoadHTTPConfigFromEnv reads RESPCACHE_HTTP_* variables on top of the defaults.
func LoadHTTPConfigFromEnv() (HTTPConfig, error) {
	cfg := DefaultHTTPConfig()
	if err := env.Parse(&cfg); err != nil {
		return HTTPConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
