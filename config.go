package main

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const configEnv = "BLOCKMESH_CONFIG"

type StoreConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"` // 0 keeps packs forever
}

type Config struct {
	Packs       []string    `yaml:"packs"` // lowest priority first
	CacheSize   int         `yaml:"cache_size"`
	Concurrency int         `yaml:"concurrency"`
	Biome       string      `yaml:"biome"`
	Listen      string      `yaml:"listen"`
	Metrics     string      `yaml:"metrics"`
	Store       StoreConfig `yaml:"store"`
}

func (c *Config) fillDefaults() {
	if c.CacheSize <= 0 {
		c.CacheSize = 4096
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
}

// LoadConfig reads file, or the file named by $BLOCKMESH_CONFIG when file
// is empty. With neither set the defaults are returned.
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		file = os.Getenv(configEnv)
	}
	cfg := &Config{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", file)
		}
		log.Printf("config: loaded %s", file)
	}
	cfg.fillDefaults()
	return cfg, nil
}
