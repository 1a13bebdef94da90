// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	require.NoError(t, AtomicWriteFile(path, []byte("\\chapter{x}"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "\\chapter{x}", string(data))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "messages.json")
	require.NoError(t, AtomicWriteFile(path, []byte("[]"), 0644))
	require.FileExists(t, path)
}

func TestAtomicWriteFile_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tex")
	require.NoError(t, AtomicWriteFile(path, []byte("old content"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be renamed or removed")
}

func TestAtomicWriteFile_EmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, AtomicWriteFile(path, nil, 0644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Makefile")
	require.NoError(t, os.WriteFile(src, []byte("all:\n\txelatex main.tex\n"), 0644))

	dst := filepath.Join(dir, "out", "Makefile")
	require.NoError(t, CopyFile(src, dst, 0644))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "all:\n\txelatex main.tex\n", string(data))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0644)
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, "dst"))
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "alice", 10, "alice"},
		{"exact", "alice", 5, "alice"},
		{"ascii cut", "+15551234567", 8, "+1555..."},
		{"wide cut", "日本語テキスト", 7, "日本..."},
		{"tiny", "abcdef", 2, "ab"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TruncateWidth(tt.in, tt.width))
		})
	}
}
