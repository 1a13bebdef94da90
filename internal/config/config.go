// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete msgbook configuration.
type Config struct {
	// Front matter
	Title             string `toml:"title" json:"title" validate:"required"`
	Copyright         string `toml:"copyright" json:"copyright" validate:"required"`
	DedicationTitle   string `toml:"dedication_title" json:"dedication_title"`
	DedicationMessage string `toml:"dedication_message" json:"dedication_message"`
	Preface           string `toml:"preface" json:"preface"`

	Export ExportConfig `toml:"export" json:"export"`
	Links  LinksConfig  `toml:"links" json:"links"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// ExportConfig controls where the manuscript is written and what goes in.
type ExportConfig struct {
	OutputDir   string `toml:"output_dir" json:"output_dir" validate:"required"`
	TemplateDir string `toml:"template_dir" json:"template_dir" validate:"required"`
	FontPath    string `toml:"font_path" json:"font_path" validate:"required"`

	// Timezone is an IANA name; empty or "Local" uses the system zone.
	Timezone string `toml:"timezone" json:"timezone"`

	// Limit caps retrieved messages.
	Limit int `toml:"limit" json:"limit" validate:"gte=1"`

	// OnLimit is "truncate" or "error".
	OnLimit string `toml:"on_limit" json:"on_limit" validate:"oneof=truncate error"`
}

// LinksConfig controls link title fetching.
type LinksConfig struct {
	Enabled     bool `toml:"enabled" json:"enabled"`
	TimeoutSecs int  `toml:"timeout_secs" json:"timeout_secs" validate:"gte=1,lte=60"`
	IntervalMs  int  `toml:"interval_ms" json:"interval_ms" validate:"gte=1,lte=60000"`
	Concurrency int  `toml:"concurrency" json:"concurrency" validate:"gte=1,lte=32"`
	MaxBodyKB   int  `toml:"max_body_kb" json:"max_body_kb" validate:"gte=1,lte=16384"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level  string `toml:"level" json:"level" validate:"oneof=trace debug info warn error"`
	Format string `toml:"format" json:"format" validate:"omitempty,oneof=console json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Title:           "iMessage Book",
		Copyright:       "ALL RIGHTS RESERVED",
		DedicationTitle: "Dedicated to you.",
		Export: ExportConfig{
			OutputDir:   "output",
			TemplateDir: "templates",
			FontPath:    filepath.Join("tex", "NotoEmoji-Medium.ttf"),
			Limit:       100000,
			OnLimit:     "truncate",
		},
		Links: LinksConfig{
			Enabled:     true,
			TimeoutSecs: 5,
			IntervalMs:  100,
			Concurrency: 4,
			MaxBodyKB:   1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATHS
// =============================================================================

// Config file names searched in the working directory.
const (
	FileTOML = "config.toml"
	FileJSON = "config.json"
	FileEnv  = ".env"
)

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from path, or from ./config.toml or
// ./config.json when path is empty. A missing default file is not an
// error. Environment overrides are applied last, then the result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{FileTOML, FileJSON} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = LoadJSON(cfg, path)
		} else {
			err = LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(FileEnv); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadDotEnv adds the variables in path to the environment without
// replacing ones that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// fillDefaults fills in any values a file explicitly blanked.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = defaults.Export.OutputDir
	}
	if cfg.Export.TemplateDir == "" {
		cfg.Export.TemplateDir = defaults.Export.TemplateDir
	}
	if cfg.Export.FontPath == "" {
		cfg.Export.FontPath = defaults.Export.FontPath
	}
	if cfg.Export.Limit == 0 {
		cfg.Export.Limit = defaults.Export.Limit
	}
	if cfg.Export.OnLimit == "" {
		cfg.Export.OnLimit = defaults.Export.OnLimit
	}

	if cfg.Links.TimeoutSecs == 0 {
		cfg.Links.TimeoutSecs = defaults.Links.TimeoutSecs
	}
	if cfg.Links.Concurrency == 0 {
		cfg.Links.Concurrency = defaults.Links.Concurrency
	}
	if cfg.Links.MaxBodyKB == 0 {
		cfg.Links.MaxBodyKB = defaults.Links.MaxBodyKB
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - MSGBOOK_TITLE, MSGBOOK_COPYRIGHT: front matter
//   - MSGBOOK_OUTPUT_DIR: overrides export.output_dir
//   - MSGBOOK_TEMPLATES: overrides export.template_dir
//   - MSGBOOK_FONT: overrides export.font_path
//   - MSGBOOK_TIMEZONE: overrides export.timezone
//   - MSGBOOK_LIMIT: overrides export.limit
//   - MSGBOOK_ON_LIMIT: overrides export.on_limit
//   - MSGBOOK_NO_LINK_TITLES: "1" or "true" disables link titles
//   - MSGBOOK_LOG_LEVEL, MSGBOOK_LOG_FORMAT: overrides the log section
func (c *Config) ApplyEnvOverrides() {
	str := map[string]*string{
		"MSGBOOK_TITLE":      &c.Title,
		"MSGBOOK_COPYRIGHT":  &c.Copyright,
		"MSGBOOK_OUTPUT_DIR": &c.Export.OutputDir,
		"MSGBOOK_TEMPLATES":  &c.Export.TemplateDir,
		"MSGBOOK_FONT":       &c.Export.FontPath,
		"MSGBOOK_TIMEZONE":   &c.Export.Timezone,
		"MSGBOOK_ON_LIMIT":   &c.Export.OnLimit,
		"MSGBOOK_LOG_LEVEL":  &c.Log.Level,
		"MSGBOOK_LOG_FORMAT": &c.Log.Format,
	}
	for name, field := range str {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("MSGBOOK_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Export.Limit = n
		}
	}

	if v := os.Getenv("MSGBOOK_NO_LINK_TITLES"); v != "" {
		c.Links.Enabled = !(v == "1" || strings.EqualFold(v, "true"))
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Location resolves Export.Timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Export.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", tz, err)
	}
	return loc, nil
}

// LinkTimeout returns the per-request link title timeout.
func (c *Config) LinkTimeout() time.Duration {
	return time.Duration(c.Links.TimeoutSecs) * time.Second
}

// LinkInterval returns the minimum spacing between link title requests.
func (c *Config) LinkInterval() time.Duration {
	return time.Duration(c.Links.IntervalMs) * time.Millisecond
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
