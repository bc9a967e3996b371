// Package config loads service settings from defaults, an optional YAML
// file, CLUBM8_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubm8/clubm8api/internal/database"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name, so
// database.dsn is read from CLUBM8_DATABASE_DSN.
const EnvPrefix = "CLUBM8"

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type APIConfig struct {
	// DefaultLimit is the page size when a list request has no limit.
	DefaultLimit int `mapstructure:"default_limit" yaml:"default_limit"`
	// MaxLimit caps limit; limit=0 asks for MaxLimit rows.
	MaxLimit int `mapstructure:"max_limit" yaml:"max_limit"`
}

type ThrottleConfig struct {
	// WritesPerMinute bounds mutating requests per client IP. Zero disables it.
	WritesPerMinute int `mapstructure:"writes_per_minute" yaml:"writes_per_minute"`
}

type Config struct {
	Port     string         `mapstructure:"port" yaml:"port"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Timezone string         `mapstructure:"timezone" yaml:"timezone"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Throttle ThrottleConfig `mapstructure:"throttle" yaml:"throttle"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		Timezone: "UTC",
		Database: DatabaseConfig{
			Driver: database.DriverSQLite,
			DSN:    "clubm8.db",
		},
		API: APIConfig{
			DefaultLimit: 20,
			MaxLimit:     1000,
		},
		Throttle: ThrottleConfig{
			WritesPerMinute: 120,
		},
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == database.DriverSQLite {
		c.Database.DSN = def.Database.DSN
	}
	if c.API.MaxLimit <= 0 {
		c.API.MaxLimit = def.API.MaxLimit
	}
	if c.API.DefaultLimit <= 0 {
		c.API.DefaultLimit = def.API.DefaultLimit
	}
	if c.API.DefaultLimit > c.API.MaxLimit {
		c.API.DefaultLimit = c.API.MaxLimit
	}
	if c.Throttle.WritesPerMinute < 0 {
		c.Throttle.WritesPerMinute = 0
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverMySQL:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", database.DriverSQLite, database.DriverMySQL, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load builds the configuration. path may be empty, in which case only
// defaults, environment and flags apply. flags may be nil; only flags the
// user actually set override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("port", def.Port)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("api.default_limit", def.API.DefaultLimit)
	v.SetDefault("api.max_limit", def.API.MaxLimit)
	v.SetDefault("throttle.writes_per_minute", def.Throttle.WritesPerMinute)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":      "port",
	"log-level": "log_level",
	"timezone":  "timezone",
	"db-driver": "database.driver",
	"db-dsn":    "database.dsn",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
