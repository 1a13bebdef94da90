// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positionals.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (declared up front, never consume a value)
//   - "--" ends flag parsing
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	known      map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. Names in boolNames are treated as boolean flags.
//
// Example:
//
//	args := NewArgParser([]string{"+15551234567", "-o", "book", "--no-link-titles"}, "no-link-titles")
//	args.Positional(0)              // "+15551234567"
//	args.Flag("o")                  // "book"
//	args.BoolFlag("no-link-titles") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		known:      make(map[string]bool, len(boolNames)),
		positional: make([]string, 0, 1),
		raw:        raw,
	}
	for _, name := range boolNames {
		parser.known[name] = true
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		if len(arg) < 2 || !strings.HasPrefix(arg, "-") {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// --flag=value
		if name, value, ok := strings.Cut(strings.TrimLeft(arg, "-"), "="); ok {
			if parser.known[name] {
				b, err := ParseBoolString(value)
				parser.boolFlags[name] = err == nil && b
			} else {
				parser.flags[name] = value
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if parser.known[name] {
			parser.boolFlags[name] = true
			i++
			continue
		}

		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			parser.flags[name] = raw[i+1]
			i += 2
		} else {
			// Value flag with nothing after it.
			parser.boolFlags[name] = true
			i++
		}
	}

	return parser
}

// Flag returns the value of a string flag, trying each name in order.
// Returns empty string if none is set.
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if val, ok := p.flags[strings.TrimLeft(name, "-")]; ok {
			return val
		}
	}
	return ""
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// BoolFlag reports whether any of names was given as a boolean flag.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[strings.TrimLeft(name, "-")] {
			return true
		}
	}
	return false
}

// HasFlag returns true if any of names exists as string or bool flag.
func (p *ArgParser) HasFlag(names ...string) bool {
	for _, name := range names {
		name = strings.TrimLeft(name, "-")
		_, hasString := p.flags[name]
		_, hasBool := p.boolFlags[name]
		if hasString || hasBool {
			return true
		}
	}
	return false
}

// MissingValue reports whether a value flag among names was given
// without a value.
func (p *ArgParser) MissingValue(names ...string) bool {
	for _, name := range names {
		name = strings.TrimLeft(name, "-")
		if _, ok := p.boolFlags[name]; ok && !p.known[name] {
			return true
		}
	}
	return false
}

// FlagNames returns every flag name that was given, sorted.
func (p *ArgParser) FlagNames() []string {
	names := make([]string, 0, len(p.flags)+len(p.boolFlags))
	for name := range p.flags {
		names = append(names, name)
	}
	for name := range p.boolFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON ARG PATTERNS
// =============================================================================

// ParseIntWithValidation parses an integer from a string and validates it's positive.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required", fieldName)
	}

	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", fieldName, err)
	}

	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", fieldName, val)
	}

	return val, nil
}

// ParseBoolString parses a boolean from various string representations.
// Accepts: true/false, yes/no, y/n, 1/0, on/off (case-insensitive)
func ParseBoolString(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
