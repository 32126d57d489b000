package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/logx"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Logging   LoggingConfig   `json:"logging"`
	Reminders ReminderConfig  `json:"reminders"`
	Analytics AnalyticsConfig `json:"analytics"`
}

// ServerConfig controls the HTTP API. Durations are Go duration strings
// ("10s", "1m").
type ServerConfig struct {
	Addr         string `json:"addr"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	IdleTimeout  string `json:"idle_timeout"`

	// RatePerSec and Burst bound requests per client IP. Zero disables the
	// limiter.
	RatePerSec  float64  `json:"rate_per_sec"`
	Burst       int      `json:"burst"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

type StorageConfig struct {
	// Path of the SQLite database. Empty means the per-user default.
	Path string `json:"path"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    string `json:"file,omitempty"`
}

// ReminderConfig drives the due-date sweep. Schedule is a cron spec with an
// optional seconds field, or a descriptor such as "@hourly".
type ReminderConfig struct {
	Enabled       bool   `json:"enabled"`
	Schedule      string `json:"schedule"`
	Timezone      string `json:"timezone"`
	DueWithinDays int    `json:"due_within_days"`
}

type AnalyticsConfig struct {
	DefaultWindowDays int    `json:"default_window_days"`
	DefaultPolicy     string `json:"default_policy"`
}

// Default returns the configuration used when no file is given. Decoding a
// file on top of it keeps defaults for omitted fields.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
			IdleTimeout:  "2m",
			RatePerSec:   20,
			Burst:        40,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Reminders: ReminderConfig{
			Enabled:       true,
			Schedule:      "0 8 * * *",
			Timezone:      "UTC",
			DueWithinDays: 2,
		},
		Analytics: AnalyticsConfig{
			DefaultWindowDays: 14,
			DefaultPolicy:     string(labor.ByPriority),
		},
	}
}

// CronParser accepts standard five-field specs, an optional leading seconds
// field, and descriptors.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr: must not be empty"))
	}
	if _, _, _, err := c.Server.Timeouts(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.RatePerSec < 0 {
		errs = append(errs, errors.New("server.rate_per_sec: must be >= 0"))
	}
	if c.Server.RatePerSec > 0 && c.Server.Burst < 1 {
		errs = append(errs, errors.New("server.burst: must be >= 1 when rate limiting is on"))
	}

	if !logx.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}

	if c.Reminders.Enabled {
		if _, err := CronParser.Parse(c.Reminders.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("reminders.schedule: %w", err))
		}
	}
	if _, err := c.Reminders.Location(); err != nil {
		errs = append(errs, fmt.Errorf("reminders.timezone: %w", err))
	}
	if c.Reminders.DueWithinDays < 0 {
		errs = append(errs, errors.New("reminders.due_within_days: must be >= 0"))
	}

	if n := c.Analytics.DefaultWindowDays; n < 1 || n > labor.MaxWindowDays {
		errs = append(errs, fmt.Errorf("analytics.default_window_days: must be between 1 and %d", labor.MaxWindowDays))
	}
	if _, err := labor.ParsePolicy(c.Analytics.DefaultPolicy); err != nil {
		errs = append(errs, fmt.Errorf("analytics.default_policy: %w", err))
	}

	return errors.Join(errs...)
}

// Location resolves the reminder timezone. Empty means UTC.
func (r ReminderConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(r.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// LogConfig converts the logging section for logx.
func (l LoggingConfig) LogConfig() logx.Config {
	return logx.Config{Level: l.Level, Console: l.Console, File: l.File}
}

// Timeouts returns the parsed server timeouts. Empty or zero values fall
// back to 10s read, 30s write and 2m idle.
func (s ServerConfig) Timeouts() (read, write, idle time.Duration, err error) {
	if read, err = parseTimeout("server.read_timeout", s.ReadTimeout, 10*time.Second); err != nil {
		return
	}
	if write, err = parseTimeout("server.write_timeout", s.WriteTimeout, 30*time.Second); err != nil {
		return
	}
	idle, err = parseTimeout("server.idle_timeout", s.IdleTimeout, 2*time.Minute)
	return
}

func parseTimeout(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration: %w", key, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: %q is negative", key, raw)
	case d == 0:
		return def, nil
	}
	return d, nil
}
