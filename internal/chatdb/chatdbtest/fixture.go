// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatdbtest builds small chat.db files for tests.
package chatdbtest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Schema is a reduced copy of the macOS chat.db layout.
const Schema = `
CREATE TABLE chat (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT,
	chat_identifier TEXT,
	service_name TEXT,
	display_name TEXT
);
CREATE TABLE message (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT,
	text TEXT,
	attributedBody BLOB,
	service TEXT,
	handle_id INTEGER DEFAULT 0,
	subject TEXT,
	date INTEGER,
	date_read INTEGER DEFAULT 0,
	date_delivered INTEGER DEFAULT 0,
	is_from_me INTEGER DEFAULT 0,
	is_read INTEGER DEFAULT 0,
	item_type INTEGER DEFAULT 0,
	group_title TEXT,
	group_action_type INTEGER DEFAULT 0,
	associated_message_guid TEXT,
	associated_message_type INTEGER DEFAULT 0,
	balloon_bundle_id TEXT,
	expressive_send_style_id TEXT,
	thread_originator_guid TEXT,
	thread_originator_part TEXT,
	date_edited INTEGER DEFAULT 0
);
CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER, message_date INTEGER DEFAULT 0);
CREATE TABLE message_attachment_join (message_id INTEGER, attachment_id INTEGER);
CREATE TABLE chat_recoverable_message_join (chat_id INTEGER, message_id INTEGER, delete_date INTEGER);
`

var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Stamp converts t to a nanosecond chat.db timestamp.
func Stamp(t time.Time) int64 {
	return t.Sub(appleEpoch).Nanoseconds()
}

// Msg describes one message row to insert.
type Msg struct {
	GUID        string
	Text        *string
	Body        []byte
	Date        time.Time
	FromMe      bool
	ItemType    int64
	GroupTitle  *string
	AssocGUID   *string
	AssocType   int64
	ThreadGUID  *string
	Attachments int
	DeletedFrom *int64
}

// DB is a writable fixture database.
type DB struct {
	t    *testing.T
	Path string
	db   *sql.DB
}

// New creates an empty chat.db in a temp directory.
func New(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return &DB{t: t, Path: path, db: db}
}

// Exec runs an arbitrary statement against the fixture.
func (f *DB) Exec(query string, args ...any) {
	f.t.Helper()
	if _, err := f.db.Exec(query, args...); err != nil {
		f.t.Fatalf("exec %q: %v", query, err)
	}
}

// AddChat inserts a chat row and returns its ROWID.
func (f *DB) AddChat(identifier, service string) int64 {
	f.t.Helper()
	res, err := f.db.Exec(
		"INSERT INTO chat (guid, chat_identifier, service_name) VALUES (?, ?, ?)",
		service+";-;"+identifier, identifier, service)
	if err != nil {
		f.t.Fatalf("insert chat: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// AddMessage inserts m, joins it to chatID and returns its ROWID.
func (f *DB) AddMessage(chatID int64, m Msg) int64 {
	f.t.Helper()
	fromMe := 0
	if m.FromMe {
		fromMe = 1
	}
	var guid any = m.GUID
	if m.GUID == "" {
		guid = nil
	}
	res, err := f.db.Exec(`INSERT INTO message
		(guid, text, attributedBody, service, date, is_from_me, item_type, group_title,
		 associated_message_guid, associated_message_type, thread_originator_guid)
		VALUES (?, ?, ?, 'iMessage', ?, ?, ?, ?, ?, ?, ?)`,
		guid, m.Text, m.Body, Stamp(m.Date), fromMe, m.ItemType, m.GroupTitle,
		m.AssocGUID, m.AssocType, m.ThreadGUID)
	if err != nil {
		f.t.Fatalf("insert message: %v", err)
	}
	id, _ := res.LastInsertId()

	f.Exec("INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)", chatID, id)
	for i := 0; i < m.Attachments; i++ {
		f.Exec("INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)", id, i+1)
	}
	if m.DeletedFrom != nil {
		f.Exec("INSERT INTO chat_recoverable_message_join (chat_id, message_id, delete_date) VALUES (?, ?, 0)",
			*m.DeletedFrom, id)
	}
	return id
}

// Join attaches an existing message to another chat.
func (f *DB) Join(chatID, messageID int64) {
	f.t.Helper()
	f.Exec("INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)", chatID, messageID)
}

// Text returns a pointer to s.
func Text(s string) *string { return &s }
