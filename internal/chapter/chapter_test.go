// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chapter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/msgbook/internal/model"
)

var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(id int64, t time.Time) model.Message {
	return model.Message{RowID: id, Date: t.Sub(appleEpoch).Nanoseconds()}
}

func collect(t *testing.T, msgs []model.Message, loc *time.Location) ([]Chapter, error) {
	t.Helper()
	var out []Chapter
	for ch, err := range Chapters(msgs, loc) {
		if err != nil {
			return out, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func TestKey(t *testing.T) {
	k := Key{Year: 2021, Month: time.March}
	require.Equal(t, "ch-2021-03", k.Name())
	require.Equal(t, "March 2021", k.Heading())
}

func TestChapters_Partition(t *testing.T) {
	msgs := []model.Message{
		at(1, time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC)),
		at(2, time.Date(2020, 1, 31, 23, 0, 0, 0, time.UTC)),
		at(3, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)),
		at(4, time.Date(2020, 4, 9, 12, 0, 0, 0, time.UTC)),
		at(5, time.Date(2020, 4, 9, 12, 0, 0, 0, time.UTC)),
	}

	chapters, err := collect(t, msgs, time.UTC)
	require.NoError(t, err)
	require.Len(t, chapters, 3)

	require.Equal(t, "ch-2020-01", chapters[0].Key.Name())
	require.Equal(t, "ch-2020-02", chapters[1].Key.Name())
	require.Equal(t, "ch-2020-04", chapters[2].Key.Name())

	// The chapters are a partition of the input, in order.
	var union []int64
	for i, ch := range chapters {
		require.NotEmpty(t, ch.Messages)
		if i > 0 {
			require.Less(t, chapters[i-1].Key.Name(), ch.Key.Name())
		}
		for _, m := range ch.Messages {
			require.Equal(t, ch.Key, KeyOf(m.Time(time.UTC)))
			union = append(union, m.RowID)
		}
	}
	require.Equal(t, []int64{1, 2, 3, 4, 5}, union)
}

func TestChapters_TimeZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("time zone database unavailable")
	}
	// 03:00 UTC on Feb 1 is still January in New York.
	msgs := []model.Message{at(1, time.Date(2020, 2, 1, 3, 0, 0, 0, time.UTC))}

	chapters, err := collect(t, msgs, ny)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.Equal(t, "ch-2020-01", chapters[0].Key.Name())
	require.Equal(t, "January 2020", chapters[0].Key.Heading())
}

func TestChapters_Empty(t *testing.T) {
	chapters, err := collect(t, nil, time.UTC)
	require.NoError(t, err)
	require.Empty(t, chapters)
}

func TestChapters_OutOfOrder(t *testing.T) {
	msgs := []model.Message{
		at(1, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)),
		at(2, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	chapters, err := collect(t, msgs, time.UTC)
	require.True(t, errors.Is(err, ErrOutOfOrder))
	require.Empty(t, chapters)
}

func TestChapters_StopEarly(t *testing.T) {
	msgs := []model.Message{
		at(1, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		at(2, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)),
		at(3, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	n := 0
	for range Chapters(msgs, time.UTC) {
		n++
		break
	}
	require.Equal(t, 1, n)
}

func TestCursor(t *testing.T) {
	var c Cursor
	require.False(t, c.Next(true), "first message of a chapter")
	require.True(t, c.Next(true))
	require.False(t, c.Next(false))
	require.True(t, c.Next(false))
	require.False(t, c.Next(true))

	var fresh Cursor
	require.False(t, fresh.Next(true))
}
