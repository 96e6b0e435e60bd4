package weaveecs

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the file-backed configuration for a World and its Scheduler,
// grounded on specmcp's internal/config/config.go Config-struct-plus-
// toml.DecodeFile pattern. Precedence is defaults < config file: a zero
// Config is never used directly, LoadConfig always starts from
// DefaultConfig and lets the file override individual fields.
type Config struct {
	InitialCapacity int    `toml:"initial_capacity"`
	FixedStepMillis int    `toml:"fixed_step_millis"`
	LogLevel        string `toml:"log_level"`
	LogJSON         bool   `toml:"log_json"`
}

// DefaultConfig mirrors the teacher's WorldOptions{} zero value plus the
// scheduler/logging fields this expansion adds.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: defaultInitialCapacity,
		FixedStepMillis: 16,
		LogLevel:        "info",
	}
}

// FixedStep reports the configured fixed-step duration.
func (c Config) FixedStep() time.Duration {
	return time.Duration(c.FixedStepMillis) * time.Millisecond
}

// LoadConfig reads a TOML file at path into a Config seeded with
// DefaultConfig, so an omitted field keeps its default rather than
// zeroing out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WorldOptions builds the WorldOptions this Config implies.
func (c Config) WorldOptions() WorldOptions {
	return WorldOptions{InitialCapacity: c.InitialCapacity}
}
