// Package config loads the rmcatalog command configuration from defaults,
// an optional YAML file and RMCATALOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sternrassler/rm-catalog-client/pkg/cache"
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/imagecache"
	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// RMCATALOG_IMAGES_MAX_ENTRIES.
const EnvPrefix = "RMCATALOG"

// Config is the effective command configuration.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
	Status    string        `mapstructure:"status"     yaml:"status"`

	Log    LogConfig    `mapstructure:"log"    yaml:"log"`
	Images ImageConfig  `mapstructure:"images" yaml:"images"`
	Redis  RedisConfig  `mapstructure:"redis"  yaml:"redis"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

type ImageConfig struct {
	MaxEntries   int   `mapstructure:"max_entries"    yaml:"max_entries"`
	Prefetch     int   `mapstructure:"prefetch"       yaml:"prefetch"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// RedisConfig enables the shared image tier when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"     yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db"       yaml:"db"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SetDefaults registers every key with its default. Keys unknown to viper
// are not picked up from the environment, so all of them are listed here.
func SetDefaults(v *viper.Viper) {
	catalogDefaults := catalog.DefaultConfig()
	imageDefaults := imagecache.DefaultConfig()

	v.SetDefault("base_url", catalogDefaults.BaseURL)
	v.SetDefault("user_agent", catalogDefaults.UserAgent)
	v.SetDefault("timeout", catalogDefaults.Timeout)
	v.SetDefault("status", "all")
	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
	v.SetDefault("images.max_entries", imageDefaults.MaxEntries)
	v.SetDefault("images.prefetch", imageDefaults.PrefetchConcurrency)
	v.SetDefault("images.max_body_bytes", cache.DefaultMaxBodyBytes)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("server.addr", ":8080")
}

// Load reads configuration into v and returns the validated result. An
// empty path searches $HOME/.rmcatalog and the working directory for
// rmcatalog.yaml; a missing file there is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rmcatalog")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.rmcatalog")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the library constructors would otherwise
// reject later with less context.
func (c Config) Validate() error {
	if _, err := catalog.ParseStatusFilter(c.Status); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Images.MaxEntries <= 0 {
		return fmt.Errorf("images.max_entries must be > 0 (got %d)", c.Images.MaxEntries)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative (got %s)", c.Timeout)
	}
	return nil
}

// StatusFilter returns the configured default filter.
func (c Config) StatusFilter() catalog.StatusFilter {
	f, _ := catalog.ParseStatusFilter(c.Status)
	return f
}

// Catalog returns the catalog client configuration.
func (c Config) Catalog() catalog.Config {
	cfg := catalog.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.UserAgent = c.UserAgent
	cfg.Timeout = c.Timeout
	return cfg
}

// ImageCache returns the image cache configuration. shared may be nil.
func (c Config) ImageCache(shared *cache.Manager) imagecache.Config {
	cfg := imagecache.DefaultConfig()
	cfg.UserAgent = c.UserAgent
	cfg.Timeout = c.Timeout
	cfg.MaxEntries = c.Images.MaxEntries
	cfg.PrefetchConcurrency = c.Images.Prefetch
	cfg.MaxBodyBytes = c.Images.MaxBodyBytes
	cfg.Shared = shared
	return cfg
}

// Logging returns the logger configuration writing to out.
func (c Config) Logging(out io.Writer) logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:  level,
		Pretty: c.Log.Pretty,
		Output: out,
	}
}

// Write encodes the configuration as YAML. The Redis password is redacted.
func (c Config) Write(w io.Writer) error {
	if c.Redis.Password != "" {
		c.Redis.Password = "********"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
