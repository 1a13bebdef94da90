// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"regexp"
	"strings"

	"github.com/jeranaias/msgbook/internal/latex"
)

// =============================================================================
// FRONT MATTER
// =============================================================================

// Placeholders in main.tex.template.
const (
	titlePlaceholder      = "iMessage Book"
	copyrightPlaceholder  = "ALL RIGHTS RESERVED"
	dedicationPlaceholder = "\\begin{center}\n  \\textit{Dedicated to you.}\n\\end{center}"
	mainMatter            = `\mainmatter`
	endDocument           = `\end{document}`
)

// FrontMatter is the plain-text content of the title pages. Values are
// escaped when the root document is rendered.
type FrontMatter struct {
	Title             string
	Copyright         string
	DedicationTitle   string
	DedicationMessage string

	// Preface is optional. Paragraphs are separated by blank lines.
	Preface string
}

// DefaultFrontMatter returns the front matter used when no configuration
// is given.
func DefaultFrontMatter() FrontMatter {
	return FrontMatter{
		Title:             titlePlaceholder,
		Copyright:         copyrightPlaceholder,
		DedicationTitle:   "Dedicated to you.",
		DedicationMessage: "",
	}
}

// =============================================================================
// ROOT DOCUMENT
// =============================================================================

// RenderRoot fills tmpl with fm and appends an \include for every chapter
// followed by \end{document}.
func RenderRoot(tmpl string, fm FrontMatter, chapters []string) string {
	doc := strings.ReplaceAll(tmpl, titlePlaceholder, latex.Escape(fm.Title))
	doc = strings.ReplaceAll(doc, copyrightPlaceholder, latex.Escape(fm.Copyright))
	doc = strings.Replace(doc, dedicationPlaceholder, dedication(fm), 1)

	if preface := strings.TrimSpace(fm.Preface); preface != "" {
		if pos := strings.Index(doc, mainMatter); pos >= 0 {
			doc = doc[:pos] + "\\chapter*{Preface}\n" + paragraphs(preface) + "\n\n" + doc[pos:]
		}
	}

	var b strings.Builder
	b.WriteString(doc)
	if !strings.HasSuffix(doc, "\n") {
		b.WriteString("\n")
	}
	for _, name := range chapters {
		b.WriteString(`\include{`)
		b.WriteString(name)
		b.WriteString("}\n")
	}
	b.WriteString(endDocument)
	b.WriteString("\n")
	return b.String()
}

func dedication(fm FrontMatter) string {
	block := func(s string) string {
		return "\\begin{center}\n  \\textit{" + latex.Escape(s) + "}\n\\end{center}"
	}
	if fm.DedicationMessage == "" {
		return block(fm.DedicationTitle)
	}
	return block(fm.DedicationTitle) + "\n" + block(fm.DedicationMessage)
}

var blankLines = regexp.MustCompile(`\n[ \t]*\n\s*`)

// paragraphs escapes each blank-line separated paragraph of s and keeps
// the paragraph breaks.
func paragraphs(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	parts := blankLines.Split(s, -1)
	for i, p := range parts {
		parts[i] = latex.Escape(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\n\n")
}
