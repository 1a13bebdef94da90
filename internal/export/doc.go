// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export assembles the LaTeX manuscript for one conversation.
//
// # Output
//
// An export run writes into Options.OutputDir:
//
//   - messages.json: snapshot of every message handed to Run
//   - ch-YYYY-MM.tex: one file per calendar month that has messages
//   - main.tex: the root document built from main.tex.template
//   - the Makefile and emoji font copied from the asset locations
//
// # Usage
//
//	exp := export.New(opts, latex.New(linktitle.New(linktitle.DefaultConfig())))
//	report, err := exp.Run(ctx, msgs)
//
// Assets are checked before anything is written, so a missing template,
// Makefile or font leaves the output directory untouched.
package export
