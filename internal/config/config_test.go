// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestConfig_Default tests that Default() returns a valid config.
func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "iMessage Book", cfg.Title)
	require.Equal(t, 100000, cfg.Export.Limit)
	require.Equal(t, "truncate", cfg.Export.OnLimit)
	require.True(t, cfg.Links.Enabled)
	require.Equal(t, 5*time.Second, cfg.LinkTimeout())
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing title", func(c *Config) { c.Title = "" }, "title"},
		{"bad on_limit", func(c *Config) { c.Export.OnLimit = "drop" }, "export.on_limit"},
		{"zero limit", func(c *Config) { c.Export.Limit = 0 }, "export.limit"},
		{"timeout too long", func(c *Config) { c.Links.TimeoutSecs = 600 }, "links.timeout_secs"},
		{"zero link interval", func(c *Config) { c.Links.IntervalMs = 0 }, "links.interval_ms"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad time zone", func(c *Config) { c.Export.Timezone = "Mars/Olympus" }, "export.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Title = ""
	cfg.Export.OnLimit = "drop"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "title: is required")
	require.Contains(t, err.Error(), "export.on_limit: invalid value 'drop', must be one of: truncate, error")
}

func TestLoad_LegacyJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, FileJSON, `{
		"title": "Our Messages",
		"copyright": "Copyright 2024",
		"dedication_title": "For Sam",
		"dedication_message": "Love always",
		"preface": null
	}`)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "Our Messages", cfg.Title)
	require.Equal(t, "For Sam", cfg.DedicationTitle)
	require.Equal(t, "Love always", cfg.DedicationMessage)
	require.Empty(t, cfg.Preface)
	require.Equal(t, "output", cfg.Export.OutputDir)
}

func TestLoad_TOMLPreferred(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, FileJSON, `{"title": "from json", "copyright": "c"}`)
	writeFile(t, dir, FileTOML, `
title = "from toml"
copyright = "c"
preface = """
One.

Two."""

[export]
timezone = "UTC"
on_limit = "error"
template_dir = ""

[links]
enabled = false
`)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from toml", cfg.Title)
	require.Equal(t, "One.\n\nTwo.", cfg.Preface)
	require.Equal(t, "error", cfg.Export.OnLimit)
	require.Equal(t, "templates", cfg.Export.TemplateDir)
	require.False(t, cfg.Links.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "book.toml", "title = \"Explicit\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Explicit", cfg.Title)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, FileTOML, "[export]\non_limit = \"explode\"\n")

	_, err := Load("")
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
}

func TestLoad_ZeroLinkInterval(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(FileTOML, []byte("[links]\ninterval_ms = 0\n"), 0644))

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "links.interval_ms")
	require.Contains(t, err.Error(), "must be at least 1")
}

func TestLoad_NoFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().Title, cfg.Title)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MSGBOOK_TITLE", "Env Title")
	t.Setenv("MSGBOOK_OUTPUT_DIR", "/tmp/book")
	t.Setenv("MSGBOOK_LIMIT", "42")
	t.Setenv("MSGBOOK_ON_LIMIT", "error")
	t.Setenv("MSGBOOK_NO_LINK_TITLES", "true")
	t.Setenv("MSGBOOK_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "Env Title", cfg.Title)
	require.Equal(t, "/tmp/book", cfg.Export.OutputDir)
	require.Equal(t, 42, cfg.Export.Limit)
	require.Equal(t, "error", cfg.Export.OnLimit)
	require.False(t, cfg.Links.Enabled)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// Registers cleanup so the variable does not leak into other tests.
	t.Setenv("MSGBOOK_COPYRIGHT", "")
	require.NoError(t, os.Unsetenv("MSGBOOK_COPYRIGHT"))
	writeFile(t, dir, FileEnv, "MSGBOOK_COPYRIGHT=From dotenv\n")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "From dotenv", cfg.Copyright)
}

func TestConfig_String(t *testing.T) {
	out := Default().String()
	require.True(t, strings.Contains(out, `title = "iMessage Book"`))
	require.True(t, strings.Contains(out, "[export]"))
}
