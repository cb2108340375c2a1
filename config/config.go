// Package config holds the settings of a heapdb instance and loads them from yaml.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"heapdb/common"
	"heapdb/logger"
)

var ErrInvalidConfig = errors.New("invalid config")

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	// PageSize is fixed for the lifetime of the data directory. Opening files written with another page size
	// yields garbage.
	PageSize  int `yaml:"page_size"`
	PoolPages int `yaml:"pool_pages"`
	// LockTimeout is how long a lock request waits before its transaction is aborted, e.g. "1s" or "250ms".
	LockTimeout      time.Duration `yaml:"lock_timeout"`
	DataDir          string        `yaml:"data_dir"`
	HistogramBuckets int           `yaml:"histogram_buckets"`
	Log              logger.Config `yaml:"log"`
	Metrics          MetricsConfig `yaml:"metrics"`
}

func Default() *Config {
	return &Config{
		PageSize:         common.DefaultPageSize,
		PoolPages:        common.DefaultPoolPages,
		LockTimeout:      common.DefaultLockTimeout,
		DataDir:          "data",
		HistogramBuckets: common.DefaultHistogramBuckets,
		Log: logger.Config{
			Level:      "info",
			Format:     "json",
			OutputFile: "stderr",
		},
	}
}

// Load reads the yaml file at path on top of Default, so fields missing in the file keep their defaults. The
// result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PageSize <= 0 || c.PageSize%8 != 0 {
		return errors.Wrapf(ErrInvalidConfig, "page_size must be a positive multiple of 8, got %d", c.PageSize)
	}
	if c.PoolPages < 1 {
		return errors.Wrapf(ErrInvalidConfig, "pool_pages must be at least 1, got %d", c.PoolPages)
	}
	if c.LockTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "lock_timeout must be positive, got %v", c.LockTimeout)
	}
	if c.HistogramBuckets < 1 {
		return errors.Wrapf(ErrInvalidConfig, "histogram_buckets must be at least 1, got %d", c.HistogramBuckets)
	}
	if c.DataDir == "" {
		return errors.Wrap(ErrInvalidConfig, "data_dir is required")
	}
	return nil
}

// Marshal renders c as yaml.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
