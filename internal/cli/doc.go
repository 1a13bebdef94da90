// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the msgbook command line.
//
// # Usage
//
//	msgbook <identifier> [-i DIR | -c PATH] [-o DIR] [flags]
//
// Run parses the arguments, loads configuration, exports the conversation
// and prints a summary. It returns the process exit code:
//
//   - ExitSuccess (0): manuscript written
//   - ExitGeneralError (1): database, retrieval or write failure
//   - ExitUsageError (2): invalid arguments
//   - ExitConfigError (3): invalid configuration or missing assets
package cli
