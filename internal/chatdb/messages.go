// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jeranaias/msgbook/internal/model"
)

// =============================================================================
// RETRIEVAL OPTIONS
// =============================================================================

// LimitPolicy decides what happens when more messages match than the cap.
type LimitPolicy string

const (
	// LimitTruncate keeps the oldest Limit messages and logs a warning.
	LimitTruncate LimitPolicy = "truncate"
	// LimitError fails the retrieval with ErrLimitExceeded.
	LimitError LimitPolicy = "error"
)

// DefaultLimit is the historical cap on retrieved messages.
const DefaultLimit = 100000

// RetrieveOptions configures Messages.
type RetrieveOptions struct {
	// Limit caps the number of returned messages (0 = DefaultLimit).
	Limit int

	// OnLimit is applied when the cap is exceeded. Default: LimitTruncate
	OnLimit LimitPolicy
}

// DefaultRetrieveOptions returns the default retrieval options.
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{Limit: DefaultLimit, OnLimit: LimitTruncate}
}

// Result is the outcome of one retrieval pass.
type Result struct {
	// Messages are ordered by date ascending, then ROWID.
	Messages []model.Message

	// Dropped counts rows that could not be decoded.
	Dropped int

	// Truncated is set when the cap was hit under LimitTruncate.
	Truncated bool
}

// =============================================================================
// MESSAGE QUERY
// =============================================================================

// messageColumn is a message table column with the literal used when an
// older schema lacks it.
type messageColumn struct {
	name     string
	fallback string
}

var messageColumns = []messageColumn{
	{"guid", ""},
	{"text", "NULL"},
	{"attributedBody", "NULL"},
	{"service", "NULL"},
	{"handle_id", "NULL"},
	{"subject", "NULL"},
	{"date", "0"},
	{"date_read", "0"},
	{"date_delivered", "0"},
	{"is_from_me", "0"},
	{"is_read", "0"},
	{"item_type", "0"},
	{"group_title", "NULL"},
	{"group_action_type", "0"},
	{"associated_message_guid", "NULL"},
	{"associated_message_type", "NULL"},
	{"balloon_bundle_id", "NULL"},
	{"expressive_send_style_id", "NULL"},
	{"thread_originator_guid", "NULL"},
	{"thread_originator_part", "NULL"},
	{"date_edited", "0"},
}

// buildMessageQuery assembles the retrieval statement for n chat ids.
// Derived counts are computed by correlated subqueries in the same
// statement so the snapshot and the manuscript see identical rows.
func (s *Store) buildMessageQuery(ctx context.Context, n int) (string, error) {
	cols, err := s.columns(ctx, tableMessage)
	if err != nil {
		return "", fmt.Errorf("inspect message table: %w", err)
	}
	if !cols["guid"] || !cols["date"] {
		return "", fmt.Errorf("%w: message.guid or message.date missing", ErrSchema)
	}

	selects := []string{"m.ROWID"}
	for _, c := range messageColumns {
		if cols[c.name] {
			selects = append(selects, "m."+c.name)
		} else {
			selects = append(selects, c.fallback+" AS "+c.name)
		}
	}
	selects = append(selects, "MIN(c.chat_id) AS chat_id")

	hasAttachments, err := s.hasTable(ctx, tableAttachmentJoin)
	if err != nil {
		return "", err
	}
	if hasAttachments {
		selects = append(selects, fmt.Sprintf(
			"(SELECT COUNT(*) FROM %s a WHERE a.message_id = m.ROWID) AS num_attachments", tableAttachmentJoin))
	} else {
		selects = append(selects, "0 AS num_attachments")
	}

	hasDeleted, err := s.hasTable(ctx, tableRecentlyDeleted)
	if err != nil {
		return "", err
	}
	if hasDeleted {
		selects = append(selects, fmt.Sprintf(
			"(SELECT d.chat_id FROM %s d WHERE d.message_id = m.ROWID LIMIT 1) AS deleted_from", tableRecentlyDeleted))
	} else {
		selects = append(selects, "NULL AS deleted_from")
	}

	if cols["thread_originator_guid"] {
		selects = append(selects, fmt.Sprintf(
			"(SELECT COUNT(*) FROM %s m2 WHERE m2.thread_originator_guid = m.guid) AS num_replies", tableMessage))
	} else {
		selects = append(selects, "0 AS num_replies")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", n), ",")

	return fmt.Sprintf(`SELECT %s
FROM %s AS m
JOIN %s AS c ON c.message_id = m.ROWID
WHERE c.chat_id IN (%s)
GROUP BY m.ROWID
ORDER BY m.date ASC, m.ROWID ASC
LIMIT ?`, strings.Join(selects, ",\n       "), tableMessage, tableChatMessageJoin, placeholders), nil
}

// Messages returns every message that belongs to one of chatIDs, ordered
// by date. A message joined to several of the chats is returned once,
// attributed to the lowest chat id. Rows that fail to decode are dropped
// and counted in Result.Dropped.
func (s *Store) Messages(ctx context.Context, chatIDs []int64, opts RetrieveOptions) (*Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.OnLimit == "" {
		opts.OnLimit = LimitTruncate
	}

	res := &Result{Messages: []model.Message{}}
	if len(chatIDs) == 0 {
		return res, nil
	}

	query, err := s.buildMessageQuery(ctx, len(chatIDs))
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(chatIDs)+1)
	for _, id := range chatIDs {
		args = append(args, id)
	}
	// One extra row tells us whether the cap was exceeded.
	args = append(args, opts.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		seen++
		if seen > opts.Limit {
			break
		}
		msg, err := scanMessage(rows)
		if err != nil {
			res.Dropped++
			s.log.Debug().Err(err).Msg("dropping undecodable message row")
			continue
		}
		res.Messages = append(res.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	if seen > opts.Limit {
		if opts.OnLimit == LimitError {
			return nil, fmt.Errorf("%w: more than %d messages", ErrLimitExceeded, opts.Limit)
		}
		res.Truncated = true
		s.log.Warn().
			Int("limit", opts.Limit).
			Msg("message limit reached, newer messages are not exported")
	}
	if res.Dropped > 0 {
		s.log.Warn().Int("dropped", res.Dropped).Msg("skipped undecodable message rows")
	}

	return res, nil
}

// scanMessage decodes one row produced by buildMessageQuery.
func scanMessage(rows *sql.Rows) (model.Message, error) {
	var (
		m             model.Message
		text          sql.NullString
		body          []byte
		service       sql.NullString
		handleID      sql.NullInt64
		subject       sql.NullString
		date          sql.NullInt64
		dateRead      sql.NullInt64
		dateDelivered sql.NullInt64
		isFromMe      sql.NullInt64
		isRead        sql.NullInt64
		itemType      sql.NullInt64
		groupTitle    sql.NullString
		groupAction   sql.NullInt64
		assocGUID     sql.NullString
		assocType     sql.NullInt64
		balloon       sql.NullString
		expressive    sql.NullString
		threadGUID    sql.NullString
		threadPart    sql.NullString
		dateEdited    sql.NullInt64
		chatID        sql.NullInt64
		deletedFrom   sql.NullInt64
	)

	err := rows.Scan(
		&m.RowID, &m.GUID, &text, &body, &service, &handleID, &subject,
		&date, &dateRead, &dateDelivered, &isFromMe, &isRead, &itemType,
		&groupTitle, &groupAction, &assocGUID, &assocType, &balloon,
		&expressive, &threadGUID, &threadPart, &dateEdited,
		&chatID, &m.NumAttachments, &deletedFrom, &m.NumReplies,
	)
	if err != nil {
		return model.Message{}, err
	}

	m.Text = nullString(text)
	if len(body) > 0 {
		m.AttributedBody = append([]byte(nil), body...)
	}
	m.Service = nullString(service)
	m.HandleID = nullInt(handleID)
	m.Subject = nullString(subject)
	m.Date = date.Int64
	m.DateRead = dateRead.Int64
	m.DateDelivered = dateDelivered.Int64
	m.IsFromMe = isFromMe.Int64 != 0
	m.IsRead = isRead.Int64 != 0
	m.ItemType = itemType.Int64
	m.GroupTitle = nullString(groupTitle)
	m.GroupActionType = groupAction.Int64
	m.AssociatedMessageGUID = nullString(assocGUID)
	m.AssociatedMessageType = nullInt(assocType)
	m.BalloonBundleID = nullString(balloon)
	m.ExpressiveSendStyleID = nullString(expressive)
	m.ThreadOriginatorGUID = nullString(threadGUID)
	m.ThreadOriginatorPart = nullString(threadPart)
	m.DateEdited = dateEdited.Int64
	m.ChatID = nullInt(chatID)
	m.DeletedFrom = nullInt(deletedFrom)

	return m, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
