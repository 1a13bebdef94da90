// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package body decomposes a message payload into ordered segments.
//
// A payload is the message text column or, when that is NULL, the string
// stored in the typedstream attributedBody blob. Inside the payload U+FFFC
// marks an attachment and U+FFFD marks an app or plugin bubble.
package body

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/msgbook/internal/model"
)

// =============================================================================
// SEGMENTS
// =============================================================================

// Kind discriminates Segment.
type Kind int

const (
	KindText Kind = iota
	KindAttachment
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAttachment:
		return "attachment"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Segment is one decoded piece of a message. Text is only set for KindText.
type Segment struct {
	Kind Kind
	Text string
}

// Text returns a text segment.
func Text(s string) Segment { return Segment{Kind: KindText, Text: s} }

// Attachment returns an attachment marker.
func Attachment() Segment { return Segment{Kind: KindAttachment} }

// Other returns a marker for content that is not rendered.
func Other() Segment { return Segment{Kind: KindOther} }

const (
	attachmentMarker = '\uFFFC'
	otherMarker      = '\uFFFD'
)

var (
	// ErrNoContent is returned for a message with no text, no body and no attachments.
	ErrNoContent = errors.New("message has no content")
	// ErrUndecodable is returned when attributedBody cannot be parsed.
	ErrUndecodable = errors.New("undecodable message body")
)

// Parse splits payload into segments in payload order. Text runs are
// trimmed and empty runs are dropped.
func Parse(payload string) []Segment {
	var (
		segs []Segment
		run  strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			segs = append(segs, Text(s))
		}
		run.Reset()
	}

	for _, r := range payload {
		switch r {
		case attachmentMarker:
			flush()
			segs = append(segs, Attachment())
		case otherMarker:
			flush()
			segs = append(segs, Other())
		default:
			run.WriteRune(r)
		}
	}
	flush()
	return segs
}

// Segments decodes the payload of msg. A message with neither text nor
// body yields one attachment segment per counted attachment.
func Segments(msg *model.Message) ([]Segment, error) {
	if msg.Text != nil {
		return Parse(*msg.Text), nil
	}
	if len(msg.AttributedBody) > 0 {
		payload, err := DecodeAttributedBody(msg.AttributedBody)
		if err != nil {
			return nil, err
		}
		return Parse(payload), nil
	}
	if msg.NumAttachments > 0 {
		segs := make([]Segment, msg.NumAttachments)
		for i := range segs {
			segs[i] = Attachment()
		}
		return segs, nil
	}
	return nil, ErrNoContent
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Content is what the renderer needs from a message.
type Content struct {
	// Text is the first text segment, nil when there is none.
	Text *string

	// Attachments counts attachment segments.
	Attachments int
}

// Extract reduces the segments of msg to renderable content. Only the first
// text segment is kept.
func Extract(msg *model.Message) (Content, error) {
	segs, err := Segments(msg)
	if err != nil {
		return Content{}, err
	}

	var c Content
	for _, seg := range segs {
		switch seg.Kind {
		case KindText:
			if c.Text == nil {
				text := seg.Text
				c.Text = &text
			}
		case KindAttachment:
			c.Attachments++
		case KindOther:
		default:
			panic(fmt.Sprintf("body: unhandled segment %v", seg.Kind))
		}
	}
	return c, nil
}
