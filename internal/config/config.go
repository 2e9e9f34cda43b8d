// Package config loads lexideck settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// LEXIDECK_DATABASE_PATH.
const EnvPrefix = "LEXIDECK_"

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
	Stats    StatsConfig    `koanf:"stats"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type ScheduleConfig struct {
	// Timezone decides calendar days for buckets, streaks and forecasts.
	Timezone string `koanf:"timezone" validate:"required,location"`
}

type SessionConfig struct {
	// OnActive is the session.Policy for a session.Slot that already holds
	// an active session. A CLI process runs one review at a time, so it only
	// changes behaviour for programs that keep a Slot across reviews.
	OnActive string `koanf:"on_active" validate:"oneof=reject discard"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type StatsConfig struct {
	HeatmapYear  int `koanf:"heatmap_year" validate:"gte=0,lte=9999"`
	ForecastDays int `koanf:"forecast_days" validate:"gte=1,lte=365"`
}

var defaults = map[string]any{
	"database.path":       "lexideck.db",
	"schedule.timezone":   "Local",
	"session.on_active":   "reject",
	"log.level":           "info",
	"log.format":          "text",
	"stats.heatmap_year":  0,
	"stats.forecast_days": 7,
}

// flagKeys maps the global flags onto config keys.
var flagKeys = map[string]string{
	"db":         "database.path",
	"timezone":   "schedule.timezone",
	"on-active":  "session.on_active",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", "lexideck.db", "Path to the SQLite database file")
	fs.String("timezone", "Local", "IANA time zone that decides calendar days")
	fs.String("on-active", "reject", "Policy for a review slot that already holds an active session (reject|discard); one lexideck process runs a single review, so only long-lived library callers see a difference")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	fs.String("log-format", "text", "Log format (text|json)")
}

// Load builds the configuration. configFile may be empty; a named file that
// does not exist is an error. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to read flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	msgs, err := validate.Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to validate configuration: %w", err)
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
	}
	return &cfg, nil
}

// envKey turns LEXIDECK_SESSION_ON_ACTIVE into session.on_active. Only the
// first underscore separates the section from the key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the slog logger described by the log section.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
