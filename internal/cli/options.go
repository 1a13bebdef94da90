// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"time"

	"github.com/jeranaias/msgbook/internal/chatdb"
	"github.com/jeranaias/msgbook/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usageLine = "msgbook <identifier> [-i DIR | -c PATH] [-o DIR] [flags]"

const usageText = `msgbook - turn an iMessage conversation into a LaTeX book

Usage:
  ` + usageLine + `

Arguments:
  identifier               Chat identifier, e.g. +15551234567 or name@example.com

Database:
  -i, --ios-backup-dir DIR Root of an unencrypted iOS backup
  -c, --chat-database PATH Path to a chat.db file
                           (default: ~/Library/Messages/chat.db)

Output:
  -o, --output-dir DIR     Manuscript directory (default: output)
      --config PATH        Configuration file (default: ./config.toml or ./config.json)
      --templates DIR      Directory with main.tex.template and Makefile
      --font PATH          Emoji font copied next to the manuscript
      --timezone ZONE      IANA time zone for chapters and dates (default: local)

Retrieval:
      --limit N            Maximum number of messages (default: 100000)
      --on-limit MODE      truncate or error when the limit is exceeded

Links:
      --no-link-titles     Do not fetch page titles for links

Logging:
      --log-level LEVEL    trace, debug, info, warn or error
      --log-format FORMAT  console or json (default: console on a terminal)

  -h, --help               Show this help
      --version            Show version information
`

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds the parsed command line.
type Options struct {
	Identifier   string
	IOSBackupDir string
	ChatDatabase string

	ConfigPath  string
	OutputDir   string
	TemplateDir string
	FontPath    string
	Timezone    string

	// Limit is 0 when not given.
	Limit   int
	OnLimit string

	NoLinkTitles bool
	LogLevel     string
	LogFormat    string

	Help    bool
	Version bool
}

// flag names: the first of each group is the canonical long name.
var (
	flagIOSBackup    = []string{"ios-backup-dir", "i"}
	flagChatDatabase = []string{"chat-database", "c"}
	flagOutputDir    = []string{"output-dir", "o"}
	flagHelp         = []string{"help", "h"}

	valueFlags = [][]string{
		flagIOSBackup, flagChatDatabase, flagOutputDir,
		{"config"}, {"templates"}, {"font"}, {"timezone"},
		{"limit"}, {"on-limit"}, {"log-level"}, {"log-format"},
	}
	boolFlags = []string{"no-link-titles", "help", "h", "version"}
)

// ParseOptions parses the arguments that follow the program name.
// Usage problems are returned as *ValidationError.
func ParseOptions(args []string) (*Options, error) {
	p := NewArgParser(args, boolFlags...)

	if err := checkFlagNames(p); err != nil {
		return nil, err
	}

	opts := &Options{
		Help:    p.BoolFlag(flagHelp...),
		Version: p.BoolFlag("version"),
	}
	if opts.Help || opts.Version {
		return opts, nil
	}

	for _, names := range valueFlags {
		if p.MissingValue(names...) {
			return nil, NewValidationError("--"+names[0], "", "flag requires a value")
		}
	}

	switch p.PositionalCount() {
	case 0:
		return nil, ErrMissingArgument("identifier", usageLine)
	case 1:
		opts.Identifier = p.Positional(0)
	default:
		return nil, NewValidationError("arguments", strings.Join(p.positional[1:], " "),
			"exactly one identifier expected")
	}

	opts.IOSBackupDir = p.Flag(flagIOSBackup...)
	opts.ChatDatabase = p.Flag(flagChatDatabase...)
	if opts.IOSBackupDir != "" && opts.ChatDatabase != "" {
		return nil, NewValidationError("--ios-backup-dir", opts.IOSBackupDir,
			"cannot be combined with --chat-database")
	}

	opts.OutputDir = p.Flag(flagOutputDir...)
	opts.ConfigPath = p.Flag("config")
	opts.TemplateDir = p.Flag("templates")
	opts.FontPath = p.Flag("font")
	opts.NoLinkTitles = p.BoolFlag("no-link-titles")

	if tz := p.Flag("timezone"); tz != "" {
		if !strings.EqualFold(tz, "local") {
			if _, err := time.LoadLocation(tz); err != nil {
				return nil, NewValidationError("--timezone", tz, "unknown time zone")
			}
		}
		opts.Timezone = tz
	}

	if v := p.Flag("limit"); v != "" {
		n, err := ParseIntWithValidation(v, "--limit")
		if err != nil {
			return nil, NewValidationError("--limit", v, err.Error())
		}
		opts.Limit = n
	}

	if v := p.Flag("on-limit"); v != "" {
		if v != string(chatdb.LimitTruncate) && v != string(chatdb.LimitError) {
			return nil, NewValidationError("--on-limit", v, "must be truncate or error")
		}
		opts.OnLimit = v
	}

	opts.LogLevel = p.Flag("log-level")
	if v := p.Flag("log-format"); v != "" {
		if v != "console" && v != "json" {
			return nil, NewValidationError("--log-format", v, "must be console or json")
		}
		opts.LogFormat = v
	}

	return opts, nil
}

func checkFlagNames(p *ArgParser) error {
	known := make(map[string]bool)
	for _, names := range valueFlags {
		for _, n := range names {
			known[n] = true
		}
	}
	for _, n := range boolFlags {
		known[n] = true
	}
	for _, name := range p.FlagNames() {
		if !known[name] {
			return NewValidationError("flag", "--"+name, "unknown flag")
		}
	}
	return nil
}

// Apply overrides cfg with every option given on the command line.
func (o *Options) Apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Export.OutputDir, o.OutputDir)
	set(&cfg.Export.TemplateDir, o.TemplateDir)
	set(&cfg.Export.FontPath, o.FontPath)
	set(&cfg.Export.Timezone, o.Timezone)
	set(&cfg.Export.OnLimit, o.OnLimit)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Log.Format, o.LogFormat)
	if o.Limit > 0 {
		cfg.Export.Limit = o.Limit
	}
	if o.NoLinkTitles {
		cfg.Links.Enabled = false
	}
}

// DatabasePath returns the chat.db to read: the explicit database, the
// database inside an iOS backup, or the default macOS location.
func (o *Options) DatabasePath() (string, error) {
	switch {
	case o.ChatDatabase != "":
		return o.ChatDatabase, nil
	case o.IOSBackupDir != "":
		return chatdb.IOSBackupPath(o.IOSBackupDir), nil
	default:
		return chatdb.DefaultMacOSPath()
	}
}
