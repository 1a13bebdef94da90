// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jeranaias/msgbook/internal/logger"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// TABLE NAMES
// =============================================================================

const (
	tableChat              = "chat"
	tableMessage           = "message"
	tableChatMessageJoin   = "chat_message_join"
	tableAttachmentJoin    = "message_attachment_join"
	tableRecentlyDeleted   = "chat_recoverable_message_join"
	defaultMacOSPath       = "Library/Messages/chat.db"
	defaultIOSBackupSubdir = "3d/3d0d7e5fb2ce288813306e4d4636395e047a3d28"
)

// DefaultMacOSPath returns ~/Library/Messages/chat.db.
func DefaultMacOSPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, defaultMacOSPath), nil
}

// IOSBackupPath returns the location of the message database inside an
// unencrypted iOS backup rooted at backupDir.
func IOSBackupPath(backupDir string) string {
	return filepath.Join(backupDir, filepath.FromSlash(defaultIOSBackupSubdir))
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("chat database not found")
	ErrSchema        = errors.New("unsupported chat database schema")
	ErrLimitExceeded = errors.New("message limit exceeded")
)

// =============================================================================
// STORE
// =============================================================================

// Store is a read-only handle on a chat.db file.
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes diagnostics to l instead of the root logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens the database at path read-only and verifies it can be queried.
func Open(path string, opts ...Option) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat chat database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve chat database path: %w", err)
	}
	dsn := (&url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)",
	}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open chat database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path, log: logger.Get()}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open chat database: %w", err)
	}
	for _, table := range []string{tableChat, tableMessage, tableChatMessageJoin} {
		ok, err := s.hasTable(context.Background(), table)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("inspect chat database: %w", err)
		}
		if !ok {
			db.Close()
			return nil, fmt.Errorf("%w: missing table %q", ErrSchema, table)
		}
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// hasTable reports whether the named table exists.
func (s *Store) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// columns returns the column names of table.
func (s *Store) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
