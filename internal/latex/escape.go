// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package latex

import "strings"

// escaper rewrites every LaTeX special character in a single pass, so the
// replacement text of one rule is never seen by another.
var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`$`, `\$`,
	`%`, `\%`,
	`&`, `\&`,
	`_`, `\_`,
	`^`, `\textasciicircum{}`,
	`~`, `\textasciitilde{}`,
	`#`, `\#`,
	`{`, `\{`,
	`}`, `\}`,
	"\r", "",
	"\n", "\\newline\n",
)

// smartChars folds typographic punctuation to ASCII.
var smartChars = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
	"\u201C", `"`,
	"\u201D", `"`,
	"\u2026", "...",
)

// Escape makes s safe to place in LaTeX body text.
func Escape(s string) string {
	return escaper.Replace(s)
}
