// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MESSAGE BLOCK
// =============================================================================

// dateFormat renders the running header date, e.g. "March  7, 2021".
const dateFormat = "January _2, 2006"

// Block is one message as it appears in a chapter file.
type Block struct {
	Date   time.Time
	FromMe bool

	// Text is already sanitized LaTeX, empty when the message has none.
	Text string

	Attachments int

	// ExtraSpace separates consecutive messages from the same sender.
	ExtraSpace bool
}

// Render returns the LaTeX for b, terminated by a blank line.
func (b Block) Render() string {
	var sb strings.Builder
	sb.WriteString(`\markright{`)
	sb.WriteString(b.Date.Format(dateFormat))
	sb.WriteString("}\n")

	if b.ExtraSpace {
		sb.WriteString("\\insertextraspace\n")
	}

	if b.FromMe {
		sb.WriteString(`\leftmsg{`)
	} else {
		sb.WriteString(`\rightmsg{`)
	}
	sb.WriteString(b.content())
	sb.WriteString("}\n\n")
	return sb.String()
}

func (b Block) content() string {
	if b.Attachments <= 0 {
		return b.Text
	}
	content := b.Text
	if content != "" {
		content += `\enskip`
	}
	return content + `\fbox{` + attachmentLabel(b.Attachments) + `}`
}

// attachmentLabel returns "1 Attachment" or "N Attachments".
func attachmentLabel(n int) string {
	if n == 1 {
		return "1 Attachment"
	}
	return strconv.Itoa(n) + " Attachments"
}
