package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-response-cache/internal/cacheinfra"
)

// Store backends.
const (
	BackendMemory  = "memory"
	BackendSturdyc = "sturdyc"
)

// DefaultValidity is how long an entry is served before it is swept.
const DefaultValidity = 30 * time.Second

// Config exposes the response cache options.
type Config struct {
	// IDKey names the identifier field of an occurrence, e.g. "id" or "uuid".
	IDKey string `env:"ID_KEY" yaml:"id_key" json:"id_key"`

	// Unexpiring disables the expiry sweep. Entries then live until a write
	// invalidates them or the cache is cleared.
	Unexpiring bool `env:"UNEXPIRING" yaml:"unexpiring" json:"unexpiring"`

	// Validity is the maximum age of a served entry.
	Validity time.Duration `env:"VALIDITY" yaml:"validity" json:"validity"`

	// Backend selects the Store implementation: memory or sturdyc.
	Backend string `env:"BACKEND" yaml:"backend" json:"backend"`

	// Sturdyc sizes the sturdyc backend. Ignored by the memory backend.
	Sturdyc SturdycConfig `envPrefix:"STURDYC_" yaml:"sturdyc" json:"sturdyc"`
}

// SturdycConfig mirrors the sturdyc store options.
type SturdycConfig struct {
	Capacity           int           `env:"CAPACITY" yaml:"capacity" json:"capacity"`
	NumShards          int           `env:"NUM_SHARDS" yaml:"num_shards" json:"num_shards"`
	TTL                time.Duration `env:"TTL" yaml:"ttl" json:"ttl"`
	EvictionPercentage int           `env:"EVICTION_PERCENTAGE" yaml:"eviction_percentage" json:"eviction_percentage"`
	EvictionInterval   time.Duration `env:"EVICTION_INTERVAL" yaml:"eviction_interval" json:"eviction_interval"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		IDKey:    "id",
		Validity: DefaultValidity,
		Backend:  BackendMemory,
		Sturdyc:  sturdycFromInternal(cacheinfra.DefaultSturdycConfig()),
	}
}

// LoadConfigFromEnv overlays RESPCACHE_* environment variables on the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RESPCACHE_"}); err != nil {
		return Config{}, fmt.Errorf("cache: parse env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile overlays a YAML file on the defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cache: read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("cache: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.IDKey, validation.Required),
		validation.Field(&c.Validity, validation.Min(time.Duration(0))),
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendSturdyc)),
		validation.Field(&c.Sturdyc, validation.When(c.Backend == BackendSturdyc,
			validation.By(func(any) error {
				return c.Sturdyc.toInternal().Validate()
			}),
		)),
	)
}

// NewStore constructs the Store selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return cacheinfra.NewMemoryStore[Entry](), nil
	case BackendSturdyc:
		return cacheinfra.NewSturdycStore[Entry](cfg.Sturdyc.toInternal())
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

func (c SturdycConfig) toInternal() cacheinfra.SturdycConfig {
	return cacheinfra.SturdycConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func sturdycFromInternal(cfg cacheinfra.SturdycConfig) SturdycConfig {
	return SturdycConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
