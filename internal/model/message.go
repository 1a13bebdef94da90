// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// APPLE TIMESTAMPS
// =============================================================================

// appleEpoch is 2001-01-01T00:00:00Z, the reference date of chat.db.
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

var appleEpochUnix = appleEpoch.Unix()

// nanosecondThreshold separates legacy second-resolution timestamps from
// the nanosecond values written since macOS High Sierra.
const nanosecondThreshold = 1_000_000_000_000

// AppleTime converts a chat.db timestamp to a time.Time in loc.
// Databases written before High Sierra store seconds, newer ones nanoseconds.
func AppleTime(stamp int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	// A time.Duration holds only ~292 years; time.Unix covers every stamp.
	var t time.Time
	if stamp > nanosecondThreshold || stamp < -nanosecondThreshold {
		t = time.Unix(appleEpochUnix, stamp)
	} else {
		t = time.Unix(appleEpochUnix+stamp, 0)
	}
	return t.In(loc)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single row of the message table together with the
// values derived by the retrieval join.
type Message struct {
	// Identity
	RowID int64  `json:"rowid"`
	GUID  string `json:"guid"`

	// Content
	Text           *string `json:"text"`
	AttributedBody []byte  `json:"-"` // typedstream payload, used when Text is NULL
	Service        *string `json:"service"`
	HandleID       *int64  `json:"handle_id"`
	Subject        *string `json:"subject"`

	// Timestamps (Apple epoch, see AppleTime)
	Date          int64 `json:"date"`
	DateRead      int64 `json:"date_read"`
	DateDelivered int64 `json:"date_delivered"`
	DateEdited    int64 `json:"date_edited"`

	IsFromMe bool `json:"is_from_me"`
	IsRead   bool `json:"is_read"`

	// Kind discriminants
	ItemType              int64   `json:"item_type"`
	GroupTitle            *string `json:"group_title"`
	GroupActionType       int64   `json:"group_action_type"`
	AssociatedMessageGUID *string `json:"associated_message_guid"`
	AssociatedMessageType *int64  `json:"associated_message_type"`
	BalloonBundleID       *string `json:"balloon_bundle_id"`
	ExpressiveSendStyleID *string `json:"expressive_send_style_id"`

	// Threads
	ThreadOriginatorGUID *string `json:"thread_originator_guid"`
	ThreadOriginatorPart *string `json:"thread_originator_part"`

	// Derived by the retrieval join
	ChatID         *int64 `json:"chat_id"`
	NumAttachments int64  `json:"num_attachments"`
	DeletedFrom    *int64 `json:"deleted_from"`
	NumReplies     int64  `json:"num_replies"`
}

// Time returns the message date in loc.
func (m *Message) Time(loc *time.Location) time.Time {
	return AppleTime(m.Date, loc)
}

// IsDeleted reports whether the message sits in "Recently Deleted".
func (m *Message) IsDeleted() bool {
	return m.DeletedFrom != nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Item types that are not regular messages.
const (
	ItemTypeParticipantChange int64 = 1
	ItemTypeGroupNameChange   int64 = 2
	ItemTypeGroupAction       int64 = 3
	ItemTypeSharePlay         int64 = 6
)

// IsReaction reports whether the message is a tapback or a sticker placed
// on another message.
func (m *Message) IsReaction() bool {
	if m.AssociatedMessageGUID == nil || m.AssociatedMessageType == nil {
		return false
	}
	switch t := *m.AssociatedMessageType; {
	case t == 1000:
		return true
	case t >= 2000 && t <= 2006:
		return true
	case t >= 3000 && t <= 3006:
		return true
	default:
		return false
	}
}

// IsAnnouncement reports whether the message is a group event such as a
// rename or a membership change.
func (m *Message) IsAnnouncement() bool {
	if m.GroupTitle != nil || m.GroupActionType != 0 {
		return true
	}
	switch m.ItemType {
	case ItemTypeParticipantChange, ItemTypeGroupNameChange, ItemTypeGroupAction:
		return true
	}
	return false
}

// IsSharePlay reports whether the message marks a SharePlay session.
func (m *Message) IsSharePlay() bool {
	return m.ItemType == ItemTypeSharePlay
}

// IsBookContent reports whether the message belongs in the manuscript.
func (m *Message) IsBookContent() bool {
	return !m.IsReaction() && !m.IsAnnouncement() && !m.IsSharePlay()
}

// Filter returns the messages that belong in the manuscript, in input order.
// Filter(Filter(x)) == Filter(x).
func Filter(msgs []Message) []Message {
	kept := make([]Message, 0, len(msgs))
	for i := range msgs {
		if msgs[i].IsBookContent() {
			kept = append(kept, msgs[i])
		}
	}
	return kept
}
