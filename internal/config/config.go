// Package config loads the settings of a merge run from a YAML file, the
// environment and an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/odimerge/internal/hint"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/subgraph"
)

// Driver selects how rounds are driven.
type Driver string

const (
	// DriverInProcess runs every round inside one call over the in-process
	// model.
	DriverInProcess Driver = "inprocess"
	// DriverRounds runs one round per host invocation over the manifest
	// model.
	DriverRounds Driver = "rounds"
)

const envPrefix = "ODIMERGE_"

// Config holds every setting of a merge run. Load fills it from the
// defaults, the config file and the environment, in that order.
type Config struct {
	MaxRounds   int      `yaml:"maxRounds"`
	CacheSize   int      `yaml:"cacheSize"`
	Parallelism int      `yaml:"parallelism"`
	LogLevel    string   `yaml:"logLevel"`
	LogFormat   string   `yaml:"logFormat"`
	OutputURL   string   `yaml:"outputURL"`
	Classpath   []string `yaml:"classpath"`
	Driver      Driver   `yaml:"driver"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		MaxRounds:   subgraph.DefaultMaxRounds,
		CacheSize:   hint.DefaultCacheSize,
		Parallelism: hint.DefaultParallelism,
		LogLevel:    "info",
		LogFormat:   string(logging.LogFormatText),
		Driver:      DriverRounds,
	}
}

// Load reads the optional YAML file at path, then applies ODIMERGE_*
// variables from the environment. A .env file in the working directory is
// loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	cfg.normalizeLocations()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location turns a plain path into a file URL relative to the working
// directory. URLs with a scheme are kept.
func Location(l string) string { return url.Normalize(l, file.Scheme) }

func (c *Config) normalizeLocations() {
	if c.OutputURL != "" {
		c.OutputURL = Location(c.OutputURL)
	}
	for i, l := range c.Classpath {
		c.Classpath[i] = Location(l)
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_ROUNDS", &cfg.MaxRounds},
		{"CACHE_SIZE", &cfg.CacheSize},
		{"PARALLELISM", &cfg.Parallelism},
	}
	for _, e := range ints {
		v := strings.TrimSpace(getenv(envPrefix + e.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, e.key)
		}
		*e.dst = n
	}
	if v := strings.TrimSpace(getenv(envPrefix + "LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(envPrefix + "LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(getenv(envPrefix + "OUTPUT_URL")); v != "" {
		cfg.OutputURL = v
	}
	if v := strings.TrimSpace(getenv(envPrefix + "DRIVER")); v != "" {
		cfg.Driver = Driver(v)
	}
	if v := strings.TrimSpace(getenv(envPrefix + "CLASSPATH")); v != "" {
		cfg.Classpath = nil
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Classpath = append(cfg.Classpath, u)
			}
		}
	}
	return nil
}

// Validate rejects settings the run cannot work with.
func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return errors.Errorf("maxRounds must be > 0, got %d", c.MaxRounds)
	}
	if c.CacheSize <= 0 {
		return errors.Errorf("cacheSize must be > 0, got %d", c.CacheSize)
	}
	if c.Parallelism <= 0 {
		return errors.Errorf("parallelism must be > 0, got %d", c.Parallelism)
	}
	switch c.Driver {
	case DriverInProcess, DriverRounds:
	default:
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if _, err := logging.ParseLogFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}
