// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatdb reads chats and messages from an iMessage chat.db file.
//
// The database is opened read-only through the pure Go SQLite driver and is
// never modified. Older databases that lack optional columns or the
// "Recently Deleted" table are supported; the missing values read as NULL
// or zero.
//
// # Usage
//
//	store, err := chatdb.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	ids, err := store.ResolveChat(ctx, "+15555550100")
//	res, err := store.Messages(ctx, ids, chatdb.DefaultRetrieveOptions())
//	book := model.Filter(res.Messages)
package chatdb
