// Package config loads hotbar configuration.
//
// Configuration comes from three layers, later layers winning:
//  1. Built-in defaults (Default)
//  2. A CUE file validated against the embedded schema (Load)
//  3. HOTBAR_* environment variables (ApplyEnv)
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
)

//go:embed schema.cue
var schemaCUE string

// Config holds every tunable of the cooldown engine.
type Config struct {
	// Enabled toggles the whole feature. When false no usage is recorded,
	// no probe is scheduled and no notification is correlated.
	Enabled bool `env:"HOTBAR_ENABLED"`

	// NotificationPrefix is the literal prefix of server cooldown messages.
	NotificationPrefix string `env:"HOTBAR_NOTIFICATION_PREFIX"`

	// TicksPerSecond converts notification seconds to ticks.
	TicksPerSecond int `env:"HOTBAR_TICKS_PER_SECOND"`

	// ProbeDelayTicks is how long after a local use the probe is re-issued.
	ProbeDelayTicks int `env:"HOTBAR_PROBE_DELAY_TICKS"`

	// UsageCapacity bounds the usage log to the most recent N events.
	UsageCapacity int `env:"HOTBAR_USAGE_CAPACITY"`

	// UsageMaxAge evicts usage events older than this; zero disables age eviction.
	UsageMaxAge time.Duration `env:"HOTBAR_USAGE_MAX_AGE"`

	// TickInterval is the simulation frame length used by engine.Engine.
	TickInterval time.Duration `env:"HOTBAR_TICK_INTERVAL"`

	// JournalPath is an optional SQLite journal file; empty disables journaling.
	JournalPath string `env:"HOTBAR_JOURNAL_PATH"`

	// ChargeCounterDisabled hides the consumable charge label for players
	// running another mod that draws its own.
	ChargeCounterDisabled bool `env:"HOTBAR_CHARGE_COUNTER_DISABLED"`
}

// Default returns the configuration the add-on ships with.
func Default() Config {
	return Config{
		Enabled:            true,
		NotificationPrefix: "[CD] ",
		TicksPerSecond:     20,
		ProbeDelayTicks:    2,
		UsageCapacity:      64,
		UsageMaxAge:        10 * time.Second,
		TickInterval:       50 * time.Millisecond,
	}
}

// ValidationError reports a configuration value that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks invariants the CUE schema cannot express for values that
// arrive through the environment.
func (c Config) Validate() error {
	switch {
	case c.NotificationPrefix == "":
		return &ValidationError{Field: "notification_prefix", Message: "must not be empty"}
	case c.TicksPerSecond <= 0:
		return &ValidationError{Field: "ticks_per_second", Message: "must be positive"}
	case c.ProbeDelayTicks < 0:
		return &ValidationError{Field: "probe_delay_ticks", Message: "must not be negative"}
	case c.UsageCapacity <= 0:
		return &ValidationError{Field: "usage_capacity", Message: "must be positive"}
	case c.UsageMaxAge < 0:
		return &ValidationError{Field: "usage_max_age", Message: "must not be negative"}
	case c.TickInterval <= 0:
		return &ValidationError{Field: "tick_interval", Message: "must be positive"}
	}
	return nil
}

// fileConfig is the decoded shape of a CUE config file.
type fileConfig struct {
	Enabled            bool   `json:"enabled"`
	NotificationPrefix string `json:"notification_prefix"`
	TicksPerSecond     int    `json:"ticks_per_second"`
	ProbeDelayTicks    int    `json:"probe_delay_ticks"`
	UsageCapacity      int    `json:"usage_capacity"`
	UsageMaxAge        string `json:"usage_max_age"`
	TickInterval       string `json:"tick_interval"`
	JournalPath        string `json:"journal_path"`

	ChargeCounterDisabled bool `json:"charge_counter_disabled"`
}

// Load reads a CUE config file and unifies it with the embedded schema.
// Unknown fields and out-of-range values are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, path)
}

// Parse compiles CUE source (filename is used for error positions).
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config: %s", cueerrors.Details(err, nil))
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate config: %s", cueerrors.Details(err, nil))
	}

	var raw fileConfig
	if err := value.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := Config{
		Enabled:            raw.Enabled,
		NotificationPrefix: raw.NotificationPrefix,
		TicksPerSecond:     raw.TicksPerSecond,
		ProbeDelayTicks:    raw.ProbeDelayTicks,
		UsageCapacity:      raw.UsageCapacity,
		JournalPath:        raw.JournalPath,

		ChargeCounterDisabled: raw.ChargeCounterDisabled,
	}

	maxAge, err := time.ParseDuration(raw.UsageMaxAge)
	if err != nil {
		return Config{}, &ValidationError{Field: "usage_max_age", Message: err.Error()}
	}
	cfg.UsageMaxAge = maxAge

	interval, err := time.ParseDuration(raw.TickInterval)
	if err != nil {
		return Config{}, &ValidationError{Field: "tick_interval", Message: err.Error()}
	}
	cfg.TickInterval = interval

	return cfg, cfg.Validate()
}

// ApplyEnv overlays HOTBAR_* environment variables onto cfg.
// Unset variables leave the existing value in place.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.Validate()
}

// Resolve loads path (or defaults when path is empty) and applies the
// environment on top.
func Resolve(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Data returns the config as canonical-JSON-safe values for the journal.
// Durations are recorded in milliseconds.
func (c Config) Data() map[string]any {
	return map[string]any{
		"enabled":             c.Enabled,
		"notification_prefix": c.NotificationPrefix,
		"ticks_per_second":    int64(c.TicksPerSecond),
		"probe_delay_ticks":   int64(c.ProbeDelayTicks),
		"usage_capacity":      int64(c.UsageCapacity),
		"usage_max_age_ms":    c.UsageMaxAge.Milliseconds(),
		"tick_interval_ms":    c.TickInterval.Milliseconds(),

		"charge_counter_disabled": c.ChargeCounterDisabled,
	}
}

// FromData rebuilds a Config recorded by Data. Missing fields keep defaults.
func FromData(data map[string]any) Config {
	cfg := Default()
	if v, ok := data["enabled"].(bool); ok {
		cfg.Enabled = v
	}
	if v, ok := data["notification_prefix"].(string); ok {
		cfg.NotificationPrefix = v
	}
	if v, ok := data["ticks_per_second"].(int64); ok {
		cfg.TicksPerSecond = int(v)
	}
	if v, ok := data["probe_delay_ticks"].(int64); ok {
		cfg.ProbeDelayTicks = int(v)
	}
	if v, ok := data["usage_capacity"].(int64); ok {
		cfg.UsageCapacity = int(v)
	}
	if v, ok := data["usage_max_age_ms"].(int64); ok {
		cfg.UsageMaxAge = time.Duration(v) * time.Millisecond
	}
	if v, ok := data["tick_interval_ms"].(int64); ok {
		cfg.TickInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok := data["charge_counter_disabled"].(bool); ok {
		cfg.ChargeCounterDisabled = v
	}
	return cfg
}
