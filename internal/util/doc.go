// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides file and text helpers shared by msgbook packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - CopyFile: atomic copy that never leaves a partial destination
//
// Text:
//   - TruncateWidth: display-width aware truncation for terminal output
package util
