// Package config loads the ambient knobs that sit alongside the tracked
// pipeline Config (domainmodel.Config): things the planner never
// fingerprints because they don't change a stage's output, only its
// operational behavior (lock duration, log level). The retry fields are
// loaded but not read by the stages, which always retry with
// retry.DefaultPolicy().
//
// File/flag parsing is explicitly out of scope for the core (spec.md
// §1); Load is a convenience for tests and cmd/broadlisten, not a
// general-purpose CLI configuration layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// Runtime holds the operational settings that are never part of a
// stage's tracked fingerprint. RetryAttempts and RetryBaseDelay are
// parsed and carried only; no stage reads them.
type Runtime struct {
	Env            string        `yaml:"env"`
	LockDuration    time.Duration `yaml:"lock_duration"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
}

// File is the on-disk shape accepted by Load: the tracked pipeline
// config plus the ambient runtime knobs, side by side.
type File struct {
	Pipeline domainmodel.Config `yaml:"pipeline"`
	Runtime  Runtime            `yaml:"runtime"`
}

// DefaultRuntime mirrors the teacher's getEnv/getEnvInt fallback style.
func DefaultRuntime() Runtime {
	return Runtime{
		Env:            "development",
		LockDuration:   2 * time.Hour,
		RetryAttempts:  3,
		RetryBaseDelay: time.Second,
	}
}

// RuntimeFromEnv reads the ambient knobs from the environment, falling
// back to DefaultRuntime for anything unset.
func RuntimeFromEnv() Runtime {
	r := DefaultRuntime()
	r.Env = getEnv("BROADLISTENING_ENV", r.Env)
	r.LockDuration = getEnvDuration("BROADLISTENING_LOCK_DURATION", r.LockDuration)
	r.RetryAttempts = getEnvInt("BROADLISTENING_RETRY_ATTEMPTS", r.RetryAttempts)
	r.RetryBaseDelay = getEnvDuration("BROADLISTENING_RETRY_BASE_DELAY", r.RetryBaseDelay)
	return r
}

// IsProduction mirrors core/config.Config.IsProduction from the teacher.
func (r Runtime) IsProduction() bool { return r.Env == "production" }

// IsDevelopment mirrors core/config.Config.IsDevelopment from the teacher.
func (r Runtime) IsDevelopment() bool { return r.Env == "development" }

// Load reads a YAML file containing both the tracked pipeline config and
// the ambient runtime knobs.
func Load(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading config %s: %w", path, err)
	}
	f.Runtime = DefaultRuntime()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
