// Package config holds kygeo's runtime configuration.
//
// Configuration hierarchy (highest to lowest priority):
//  1. CLI flags
//  2. Environment variables (KYGEO_*), including those from a .env file
//  3. Config file (~/.kygeo/config.yaml)
//  4. Defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "KYGEO"

// Config is the complete kygeo configuration.
type Config struct {
	Gazetteer GazetteerConfig `mapstructure:"gazetteer" yaml:"gazetteer"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Workers   WorkersConfig   `mapstructure:"workers" yaml:"workers"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Feed      FeedConfig      `mapstructure:"feed" yaml:"feed"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

// GazetteerConfig selects the gazetteer. An empty Path means the embedded one.
type GazetteerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or console
}

// WorkersConfig sizes the detection worker pool.
type WorkersConfig struct {
	Count int `mapstructure:"count" yaml:"count"`
}

// CacheConfig configures memoization of detection results.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Cleanup time.Duration `mapstructure:"cleanup" yaml:"cleanup"`
}

// HTTPConfig is shared by the feed and article fetchers.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// FeedConfig lists feeds to tag and how fast to fetch them.
type FeedConfig struct {
	URLs              []string `mapstructure:"urls" yaml:"urls"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int      `mapstructure:"burst" yaml:"burst"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Dir        string   `mapstructure:"dir" yaml:"dir"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Workers: WorkersConfig{Count: 4},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
			Cleanup: 10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "kygeo/0.3 (+https://github.com/bluegrass-news/kygeo)",
		},
		Feed: FeedConfig{
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Watch: WatchConfig{
			Dir:        "./inbox",
			Extensions: []string{".txt", ".html", ".htm"},
		},
	}
}

// SetDefaults registers DefaultConfig with v and binds KYGEO_* environment
// variables ("log.level" is read from KYGEO_LOG_LEVEL).
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("gazetteer.path", d.Gazetteer.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("workers.count", d.Workers.Count)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.cleanup", d.Cache.Cleanup)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("feed.urls", d.Feed.URLs)
	v.SetDefault("feed.requests_per_second", d.Feed.RequestsPerSecond)
	v.SetDefault("feed.burst", d.Feed.Burst)
	v.SetDefault("watch.dir", d.Watch.Dir)
	v.SetDefault("watch.extensions", d.Watch.Extensions)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads environment variables from .env files. Missing files are
// not an error; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var errs error
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !isNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("loading %s: %w", p, err))
		}
	}
	return errs
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs error
	if c.Workers.Count < 1 {
		errs = multierr.Append(errs, fmt.Errorf("workers.count must be at least 1, got %d", c.Workers.Count))
	}
	if c.Feed.RequestsPerSecond <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("feed.requests_per_second must be positive, got %v", c.Feed.RequestsPerSecond))
	}
	if c.Feed.Burst < 1 {
		errs = multierr.Append(errs, fmt.Errorf("feed.burst must be at least 1, got %d", c.Feed.Burst))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = multierr.Append(errs, errors.New("cache.ttl must be positive when the cache is enabled"))
	}
	return errs
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
