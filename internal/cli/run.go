// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/msgbook/internal/chatdb"
	"github.com/jeranaias/msgbook/internal/config"
	"github.com/jeranaias/msgbook/internal/export"
	"github.com/jeranaias/msgbook/internal/latex"
	"github.com/jeranaias/msgbook/internal/linktitle"
	"github.com/jeranaias/msgbook/internal/logger"
	"github.com/jeranaias/msgbook/internal/model"
)

// Run executes msgbook with args (without the program name) and returns
// the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := ParseOptions(args)
	if err != nil {
		DisplayError(stderr, err)
		fmt.Fprintf(stderr, "Usage: %s\n", usageLine)
		return GetExitCode(err)
	}
	if opts.Help {
		fmt.Fprint(stdout, usageText)
		return ExitSuccess
	}
	if opts.Version {
		fmt.Fprintf(stdout, "msgbook version %s\n", Version)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(stdout, "  Build date: %s\n", BuildDate)
		return ExitSuccess
	}

	summary, err := runExport(ctx, opts, stderr)
	if err != nil {
		DisplayError(stderr, err)
		return GetExitCode(err)
	}
	fmt.Fprint(stdout, RenderSummary(summary))
	return ExitSuccess
}

// runExport runs one export and describes it.
func runExport(ctx context.Context, opts *Options, stderr io.Writer) (*Summary, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	opts.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	runID := uuid.NewString()
	logOpts := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: stderr, RunID: runID}
	logger.Init(logOpts)
	log := logger.New(logOpts)

	dbPath, err := opts.DatabasePath()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	store, err := chatdb.Open(dbPath, chatdb.WithLogger(&log))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ids, err := store.ResolveChat(ctx, opts.Identifier)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		log.Warn().Str("identifier", opts.Identifier).Msg("No chat matches identifier")
	}

	result, err := store.Messages(ctx, ids, chatdb.RetrieveOptions{
		Limit:   cfg.Export.Limit,
		OnLimit: chatdb.LimitPolicy(cfg.Export.OnLimit),
	})
	if err != nil {
		return nil, err
	}
	msgs := model.Filter(result.Messages)
	deleted := 0
	for i := range msgs {
		if msgs[i].IsDeleted() {
			deleted++
		}
	}
	log.Info().
		Int("retrieved", len(result.Messages)).
		Int("kept", len(msgs)).
		Int("dropped", result.Dropped).
		Int("deleted", deleted).
		Msg("Messages loaded")

	var titles latex.TitleResolver = linktitle.Disabled()
	if cfg.Links.Enabled {
		titles = linktitle.New(linktitle.Config{
			Timeout:  cfg.LinkTimeout(),
			Interval: cfg.LinkInterval(),
			Burst:    cfg.Links.Concurrency,
			MaxBody:  int64(cfg.Links.MaxBodyKB) << 10,
		}, linktitle.WithLogger(&log))
	}
	sanitizer := latex.New(titles,
		latex.WithConcurrency(cfg.Links.Concurrency),
		latex.WithLogger(&log))

	exp := export.New(export.Options{
		OutputDir:   cfg.Export.OutputDir,
		TemplateDir: cfg.Export.TemplateDir,
		FontPath:    cfg.Export.FontPath,
		Location:    loc,
		FrontMatter: export.FrontMatter{
			Title:             cfg.Title,
			Copyright:         cfg.Copyright,
			DedicationTitle:   cfg.DedicationTitle,
			DedicationMessage: cfg.DedicationMessage,
			Preface:           cfg.Preface,
		},
	}, sanitizer, export.WithLogger(&log))

	report, err := exp.Run(ctx, msgs)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Identifier: opts.Identifier,
		Database:   store.Path(),
		ChatIDs:    ids,
		Retrieved:  len(result.Messages),
		Deleted:    deleted,
		Dropped:    result.Dropped,
		Truncated:  result.Truncated,
		Report:     report,
		OutputDir:  cfg.Export.OutputDir,
		RunID:      runID,
		Elapsed:    time.Since(started),
	}, nil
}
