// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chapter partitions a chronological message stream into calendar
// month chapters.
package chapter

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jeranaias/msgbook/internal/model"
)

// ErrOutOfOrder is yielded when a message is older than its predecessor.
var ErrOutOfOrder = errors.New("messages are not in chronological order")

// =============================================================================
// KEY
// =============================================================================

// Key identifies a chapter by calendar month in the export time zone.
type Key struct {
	Year  int
	Month time.Month
}

// KeyOf returns the chapter key of t in t's location.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: t.Month()}
}

// Name is the file stem of the chapter, e.g. "ch-2021-03".
func (k Key) Name() string {
	return fmt.Sprintf("ch-%04d-%02d", k.Year, int(k.Month))
}

// Heading is the chapter title, e.g. "March 2021".
func (k Key) Heading() string {
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// =============================================================================
// PARTITIONING
// =============================================================================

// Chapter is a run of messages that share a Key.
type Chapter struct {
	Key      Key
	Messages []model.Message
}

// Chapters yields the chapters of msgs in order. msgs must be sorted by
// date; the first decrease yields ErrOutOfOrder and ends the sequence.
// Chapters are never empty.
func Chapters(msgs []model.Message, loc *time.Location) iter.Seq2[Chapter, error] {
	if loc == nil {
		loc = time.Local
	}
	return func(yield func(Chapter, error) bool) {
		if len(msgs) == 0 {
			return
		}

		start := 0
		prev := msgs[0].Time(loc)
		key := KeyOf(prev)
		for i := 1; i < len(msgs); i++ {
			at := msgs[i].Time(loc)
			if at.Before(prev) {
				yield(Chapter{}, fmt.Errorf("%w: message %d precedes message %d",
					ErrOutOfOrder, msgs[i].RowID, msgs[i-1].RowID))
				return
			}
			prev = at
			next := KeyOf(at)
			if next == key {
				continue
			}
			if !yield(Chapter{Key: key, Messages: msgs[start:i]}, nil) {
				return
			}
			start, key = i, next
		}
		yield(Chapter{Key: key, Messages: msgs[start:]}, nil)
	}
}

// =============================================================================
// ALTERNATION
// =============================================================================

// Cursor tracks the sender of the previous rendered message in a chapter.
// The zero value starts a chapter.
type Cursor struct {
	started bool
	fromMe  bool
}

// Next records a rendered message and reports whether it has the same
// sender as the one before it.
func (c *Cursor) Next(fromMe bool) bool {
	same := c.started && c.fromMe == fromMe
	c.started, c.fromMe = true, fromMe
	return same
}
