// Package config loads engine settings from a YAML file with STRONGHOLD_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/stronghold/internal/models"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "STRONGHOLD_"

// FloorPolicy decides what happens when an effect batch would push the
// treasury below the floor
type FloorPolicy string

const (
	FloorReject FloorPolicy = "reject" // refuse the whole batch
	FloorClamp  FloorPolicy = "clamp"  // stop the treasury at the floor, apply the rest
)

// Config holds engine tuning
type Config struct {
	TreasuryFloor int64               `yaml:"treasury_floor" env:"TREASURY_FLOOR"`
	FloorPolicy   FloorPolicy         `yaml:"floor_policy" env:"FLOOR_POLICY"`
	XP            models.XPThresholds `yaml:"xp" envPrefix:"XP_"`
	AutoResolve   bool                `yaml:"auto_resolve" env:"AUTO_RESOLVE"`
	Seed          int64               `yaml:"seed" env:"SEED"` // 0 draws a random seed
	LogLevel      string              `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the stock configuration
func Default() Config {
	return Config{
		TreasuryFloor: 0,
		FloorPolicy:   FloorReject,
		XP: models.XPThresholds{
			ApprenticeToExperienced: 10,
			ExperiencedToMaster:     30,
		},
		LogLevel: "info",
	}
}

// Load reads path (optional) over the defaults, then applies environment
// overrides and validates the result
func Load(path string) (Config, error) {
	return load(path, nil)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings are usable
func (c Config) Validate() error {
	var errs []error
	switch c.FloorPolicy {
	case FloorReject, FloorClamp:
	default:
		errs = append(errs, fmt.Errorf("floor_policy must be %q or %q, got %q", FloorReject, FloorClamp, c.FloorPolicy))
	}
	if c.XP.ApprenticeToExperienced <= 0 {
		errs = append(errs, errors.New("xp.apprentice_to_experienced must be > 0"))
	}
	if c.XP.ExperiencedToMaster <= c.XP.ApprenticeToExperienced {
		errs = append(errs, errors.New("xp.experienced_to_master must exceed xp.apprentice_to_experienced"))
	}
	return errors.Join(errs...)
}
