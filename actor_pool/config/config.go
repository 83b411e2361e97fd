package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keenzhang/pool/actor_pool/errs"
	"github.com/keenzhang/pool/actor_pool/pool"
)

// BackendConfig holds the connect parameters a connector needs.
type BackendConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// PoolSettings is the per-pool section of the config file.
type PoolSettings struct {
	MinSize            int           `yaml:"min_size"`
	MaxSize            int           `yaml:"max_size"`
	Backend            BackendConfig `yaml:"backend"`
	WaitTimeoutSeconds int           `yaml:"wait_timeout_seconds"`
	RetrySeconds       int           `yaml:"retry_interval_seconds"`
}

// Config is the root of the yaml file.
type Config struct {
	Pools map[string]PoolSettings `yaml:"pools"`
}

// DefaultConfig returns a config with no pools defined.
func DefaultConfig() *Config {
	return &Config{Pools: map[string]PoolSettings{}}
}

// Load reads and parses a yaml config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Pool resolves one pool's settings. A pool that is not configured, or is
// configured without a minimum size, refuses to start.
func (c *Config) Pool(name string) (PoolSettings, error) {
	ps, ok := c.Pools[name]
	if !ok {
		return PoolSettings{}, errs.NewConfigMissingErr("no configuration for pool " + name)
	}
	if ps.MinSize <= 0 {
		return PoolSettings{}, errs.NewConfigMissingErr("pool " + name + " has no min_size")
	}
	return ps, nil
}

// WaitTimeout converts the configured wait bound; zero keeps the pool default.
func (ps PoolSettings) WaitTimeout() time.Duration {
	return time.Duration(ps.WaitTimeoutSeconds) * time.Second
}

// RetryInterval converts the configured connect-retry delay.
func (ps PoolSettings) RetryInterval() time.Duration {
	return time.Duration(ps.RetrySeconds) * time.Second
}

// Bootstrap registers every configured pool, building its Options through
// the supplied constructor (typically a connector package such as
// mysqlconn). The first failure aborts the startup.
func Bootstrap(cfg *Config, build func(name string, ps PoolSettings) (*pool.Options, error)) error {
	for name := range cfg.Pools {
		ps, err := cfg.Pool(name)
		if err != nil {
			return err
		}
		opts, err := build(name, ps)
		if err != nil {
			return err
		}
		if _, err := pool.Register(name, opts); err != nil {
			return err
		}
	}
	return nil
}
