// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Chat represents one internal conversation record.
//
// The same Identifier (a phone number, e-mail address or group id) can
// appear on several rows, for example after switching between SMS and
// iMessage, so Identifier is not unique.
type Chat struct {
	RowID       int64  `json:"rowid"`
	Identifier  string `json:"chat_identifier"`
	ServiceName string `json:"service_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}
