// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/msgbook/internal/export"
	"github.com/jeranaias/msgbook/internal/util"
)

// valueColumnWidth bounds free-form values in the summary.
const valueColumnWidth = 48

// Summary describes a finished export for the terminal.
type Summary struct {
	Identifier string
	Database   string
	ChatIDs    []int64
	Retrieved  int
	Deleted    int
	Dropped    int
	Truncated  bool
	Report     *export.Report
	OutputDir  string
	RunID      string
	Elapsed    time.Duration
}

// RenderSummary formats s for stdout.
func RenderSummary(s *Summary) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(RenderLabel(label))
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(TitleStyle.Render("msgbook export"))
	b.WriteString("\n")
	b.WriteString(RenderSeparator())
	b.WriteString("\n")

	line("Identifier", util.TruncateWidth(s.Identifier, valueColumnWidth))
	line("Database", util.TruncateWidth(s.Database, valueColumnWidth))
	if len(s.ChatIDs) == 0 {
		b.WriteString(RenderLabel("Chats"))
		b.WriteString(RenderStatus("warn"))
		b.WriteString(" no matching chat\n")
	} else {
		ids := make([]string, len(s.ChatIDs))
		for i, id := range s.ChatIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		line("Chats", util.TruncateWidth(strings.Join(ids, ", "), valueColumnWidth))
	}

	line("Messages", fmt.Sprintf("%d retrieved", s.Retrieved))
	if s.Deleted > 0 {
		line("", DimStyle.Render(fmt.Sprintf("%d recently deleted", s.Deleted)))
	}
	if s.Dropped > 0 {
		line("", WarningStyle.Render(fmt.Sprintf("%d undecodable rows dropped", s.Dropped)))
	}
	if s.Truncated {
		line("", WarningStyle.Render("limit reached, newest messages omitted"))
	}

	if r := s.Report; r != nil {
		line("Rendered", fmt.Sprintf("%d messages, %d attachments", r.Rendered, r.Attachments))
		if r.Skipped > 0 {
			line("", WarningStyle.Render(fmt.Sprintf("%d messages skipped", r.Skipped)))
		}
		line("Chapters", chapterRange(r.Chapters))
	}

	b.WriteString(RenderSeparator())
	b.WriteString("\n")
	b.WriteString(RenderStatus("ok"))
	b.WriteString(" Exported to ")
	b.WriteString(s.OutputDir)
	if s.Elapsed > 0 {
		b.WriteString(DimStyle.Render(fmt.Sprintf(" in %s", s.Elapsed.Round(time.Millisecond))))
	}
	b.WriteString("\n")
	if s.RunID != "" {
		b.WriteString(DimStyle.Render("run " + s.RunID))
		b.WriteString("\n")
	}
	return b.String()
}

// chapterRange returns e.g. "14 (ch-2019-03 .. ch-2020-06)".
func chapterRange(chapters []string) string {
	switch len(chapters) {
	case 0:
		return "none"
	case 1:
		return "1 (" + chapters[0] + ")"
	default:
		return fmt.Sprintf("%d (%s .. %s)", len(chapters), chapters[0], chapters[len(chapters)-1])
	}
}
