// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for msgbook.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation. The flat front matter
// keys (title, copyright, dedication_title, dedication_message, preface)
// match the config.json files written for earlier releases.
//
// # Key Types
//
//   - Config: front matter plus the export, links and log sections
//   - ExportConfig: output, assets, time zone and retrieval cap
//   - LinksConfig: link title fetching
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MSGBOOK_*), including those from ./.env
//   - The file given with --config
//   - ./config.toml
//   - ./config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	loc, _ := cfg.Location()
package config
