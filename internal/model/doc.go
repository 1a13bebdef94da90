// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages read
// from an iMessage database.
//
// # Key Types
//
//   - Chat: One row of the chat table (internal id plus external identifier)
//   - Message: One row of the message table enriched with derived counts
//
// Both types are read-only views of the source database. Message carries
// JSON tags so a filtered message list can be written as an audit snapshot
// without a separate serialization type.
//
// # Usage
//
// Drop the message kinds that do not belong in a book:
//
//	kept := model.Filter(msgs)
//
// Convert the store-native timestamp:
//
//	t := msg.Time(time.Local)
package model
