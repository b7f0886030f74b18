// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package config defines the medusa.yml configuration schema and helpers
// for loading, defaulting, and environment-overlaying it. Adapted from
// pkg/config.Config/pkg/config.Load's shape (top-level struct, per-section
// optional pointer, ErrConfigNotFound sentinel) with the provider-registry
// validation machinery dropped — medusa has no pluggable backend/frontend
// providers to validate against.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/insys-icom/medusa/internal/run"
)

// ErrConfigNotFound is returned when the config file does not exist at the given path.
var ErrConfigNotFound = errors.New("medusa config not found")

// defaults mirror internal/expand.DefaultTimeout and the teacher's
// RobotBin/OutputDir conventions.
const (
	defaultRobotBin  = "robot"
	defaultOutputDir = "output"
	defaultSoftSecs  = 30
	defaultHardSecs  = 60
	defaultKillSecs  = 10
)

// Config represents the top-level medusa configuration.
type Config struct {
	RobotBin       string         `yaml:"robot_bin"`
	OutputDir      string         `yaml:"output_dir"`
	DefaultTimeout *TimeoutConfig `yaml:"default_timeout,omitempty"`
	History        *HistoryConfig `yaml:"history,omitempty"`
}

// TimeoutConfig is the on-disk form of run.Timeout, expressed in whole
// seconds for readability in medusa.yml.
type TimeoutConfig struct {
	SoftSeconds int `yaml:"soft_seconds"`
	HardSeconds int `yaml:"hard_seconds"`
	KillSeconds int `yaml:"kill_seconds"`
}

// HistoryConfig configures the optional internal/history sink.
type HistoryConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// Timeout converts c's on-disk seconds into a run.Timeout.
func (c *TimeoutConfig) Timeout() run.Timeout {
	return run.Timeout{
		Soft: time.Duration(c.SoftSeconds) * time.Second,
		Hard: time.Duration(c.HardSeconds) * time.Second,
		Kill: time.Duration(c.KillSeconds) * time.Second,
	}
}

// DefaultConfigPath returns the default config path for the current working directory.
func DefaultConfigPath() string {
	return "medusa.yml"
}

// Default returns a Config with every field at its zero-configuration
// default, then MEDUSA_* environment overlaid. Used when no medusa.yml is
// present at the default path and the caller did not request one
// explicitly via --config.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg, os.Environ())
	return cfg
}

// Exists reports whether a config file exists at the given path.
// It returns (false, nil) if the file does not exist.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Load reads the config from path, applies defaults for any unset field,
// then overlays MEDUSA_* environment variables (env wins over file).
//
// It returns ErrConfigNotFound if the file does not exist.
func Load(path string) (*Config, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking config existence: %w", err)
	}

	if !exists {
		return nil, ErrConfigNotFound
	}

	// nolint:gosec // G304: reading config file from user-specified path is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg, os.Environ())

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RobotBin == "" {
		cfg.RobotBin = defaultRobotBin
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.DefaultTimeout == nil {
		cfg.DefaultTimeout = &TimeoutConfig{
			SoftSeconds: defaultSoftSecs,
			HardSeconds: defaultHardSecs,
			KillSeconds: defaultKillSecs,
		}
	}
	if cfg.History == nil {
		cfg.History = &HistoryConfig{}
	}
}

// ApplyEnvOverrides overlays MEDUSA_ROBOT_BIN, MEDUSA_OUTPUTDIR, and
// MEDUSA_HISTORY_DATABASE_URL onto cfg, following internal/core/env's
// precedence rule that environment variables win over the config file.
// Unlike the teacher, medusa has no dev/staging/prod environment concept,
// so this lives directly on Config rather than behind a separate
// env.Resolver type.
func ApplyEnvOverrides(cfg *Config, environ []string) {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				vars[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	if v, ok := vars["MEDUSA_ROBOT_BIN"]; ok && v != "" {
		cfg.RobotBin = v
	}
	if v, ok := vars["MEDUSA_OUTPUTDIR"]; ok && v != "" {
		cfg.OutputDir = v
	}
	if v, ok := vars["MEDUSA_HISTORY_DATABASE_URL"]; ok && v != "" {
		if cfg.History == nil {
			cfg.History = &HistoryConfig{}
		}
		cfg.History.DatabaseURL = v
	}
}

func validate(cfg *Config) error {
	if cfg.RobotBin == "" {
		return errors.New("config: robot_bin must be non-empty")
	}
	if cfg.OutputDir == "" {
		return errors.New("config: output_dir must be non-empty")
	}
	if cfg.DefaultTimeout.SoftSeconds <= 0 || cfg.DefaultTimeout.HardSeconds <= 0 || cfg.DefaultTimeout.KillSeconds <= 0 {
		return errors.New("config: default_timeout seconds must all be positive")
	}
	if cfg.DefaultTimeout.HardSeconds < cfg.DefaultTimeout.SoftSeconds {
		return errors.New("config: default_timeout.hard_seconds must be >= soft_seconds")
	}
	return nil
}
