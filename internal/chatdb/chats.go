// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jeranaias/msgbook/internal/model"
)

// Chats returns every row of the chat table. Rows that cannot be decoded
// are skipped.
func (s *Store) Chats(ctx context.Context) ([]model.Chat, error) {
	cols, err := s.columns(ctx, tableChat)
	if err != nil {
		return nil, fmt.Errorf("inspect chat table: %w", err)
	}
	if !cols["chat_identifier"] {
		return nil, fmt.Errorf("%w: chat.chat_identifier missing", ErrSchema)
	}

	query := fmt.Sprintf("SELECT ROWID, chat_identifier, %s, %s FROM %s",
		optionalColumn(cols, "service_name", "NULL"),
		optionalColumn(cols, "display_name", "NULL"),
		tableChat)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var (
		chats   []model.Chat
		dropped int
	)
	for rows.Next() {
		var (
			c       model.Chat
			service sql.NullString
			display sql.NullString
		)
		if err := rows.Scan(&c.RowID, &c.Identifier, &service, &display); err != nil {
			dropped++
			continue
		}
		c.ServiceName = service.String
		c.DisplayName = display.String
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chats: %w", err)
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("skipped undecodable chat rows")
	}
	return chats, nil
}

// ResolveChat returns the ids of every chat whose identifier equals
// identifier. An empty result is not an error.
func (s *Store) ResolveChat(ctx context.Context, identifier string) ([]int64, error) {
	chats, err := s.Chats(ctx)
	if err != nil {
		return nil, err
	}
	ids := ResolveChatIDs(identifier, chats)
	for _, c := range chats {
		if c.Identifier == identifier {
			s.log.Debug().Int64("chat_id", c.RowID).Str("service", c.ServiceName).Msg("found chat")
		}
	}
	return ids, nil
}

// ResolveChatIDs returns the distinct row ids of chats whose identifier
// matches exactly (case-sensitive, no normalization).
func ResolveChatIDs(identifier string, chats []model.Chat) []int64 {
	seen := make(map[int64]bool)
	ids := make([]int64, 0, 2)
	for _, c := range chats {
		if c.Identifier != identifier || seen[c.RowID] {
			continue
		}
		seen[c.RowID] = true
		ids = append(ids, c.RowID)
	}
	return ids
}

// optionalColumn selects name when present, otherwise the fallback literal.
func optionalColumn(cols map[string]bool, name, fallback string) string {
	if cols[name] {
		return name
	}
	return fallback + " AS " + name
}
