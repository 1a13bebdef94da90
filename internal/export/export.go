// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/msgbook/internal/body"
	"github.com/jeranaias/msgbook/internal/chapter"
	"github.com/jeranaias/msgbook/internal/latex"
	"github.com/jeranaias/msgbook/internal/logger"
	"github.com/jeranaias/msgbook/internal/model"
	"github.com/jeranaias/msgbook/internal/util"
)

// =============================================================================
// FILE NAMES
// =============================================================================

const (
	TemplateName = "main.tex.template"
	MakefileName = "Makefile"
	RootName     = "main.tex"
	SnapshotName = "messages.json"
	DefaultFont  = "NotoEmoji-Medium.ttf"
)

// ErrMissingAsset is returned by Run when a template, Makefile or font
// cannot be found.
var ErrMissingAsset = errors.New("missing export asset")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures an export run.
type Options struct {
	// OutputDir receives the manuscript. Created if missing.
	// Default: "output"
	OutputDir string

	// TemplateDir holds main.tex.template and the Makefile.
	// Default: "templates"
	TemplateDir string

	// FontPath is the emoji font copied next to the manuscript.
	// Default: "tex/NotoEmoji-Medium.ttf"
	FontPath string

	// Location is the time zone used for chapters and dates.
	// Default: time.Local
	Location *time.Location

	// FrontMatter fills the title pages of main.tex.
	FrontMatter FrontMatter
}

// DefaultOptions returns default export options.
func DefaultOptions() Options {
	return Options{
		OutputDir:   "output",
		TemplateDir: "templates",
		FontPath:    filepath.Join("tex", DefaultFont),
		Location:    time.Local,
		FrontMatter: DefaultFrontMatter(),
	}
}

// Report summarizes a finished export.
type Report struct {
	// Chapters are the chapter names in emission order.
	Chapters []string

	// Messages is the number of messages handed to Run.
	Messages int

	// Rendered counts message blocks written.
	Rendered int

	// Skipped counts messages whose body could not be extracted.
	Skipped int

	// Attachments counts attachment markers rendered.
	Attachments int
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter writes manuscripts. One Exporter may run many exports; the
// sanitizer's title cache is shared between them.
type Exporter struct {
	opts      Options
	sanitizer *latex.Sanitizer
	log       *logger.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger routes diagnostics to l.
func WithLogger(l *logger.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// New creates an Exporter. Empty fields of opts take their defaults.
func New(opts Options, sanitizer *latex.Sanitizer, options ...Option) *Exporter {
	def := DefaultOptions()
	if opts.OutputDir == "" {
		opts.OutputDir = def.OutputDir
	}
	if opts.TemplateDir == "" {
		opts.TemplateDir = def.TemplateDir
	}
	if opts.FontPath == "" {
		opts.FontPath = def.FontPath
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if sanitizer == nil {
		sanitizer = latex.New(nil)
	}

	e := &Exporter{opts: opts, sanitizer: sanitizer, log: logger.Get()}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Run exports msgs, which must already be filtered and in chronological
// order.
func (e *Exporter) Run(ctx context.Context, msgs []model.Message) (*Report, error) {
	tmpl, err := e.preflight()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if err := WriteSnapshot(filepath.Join(e.opts.OutputDir, SnapshotName), msgs); err != nil {
		return nil, err
	}

	report := &Report{Messages: len(msgs), Chapters: []string{}}
	for ch, err := range chapter.Chapters(msgs, e.opts.Location) {
		if err != nil {
			return nil, err
		}
		if err := e.writeChapter(ctx, ch, report); err != nil {
			return nil, err
		}
		report.Chapters = append(report.Chapters, ch.Key.Name())
	}

	root := RenderRoot(tmpl, e.opts.FrontMatter, report.Chapters)
	if err := util.AtomicWriteFile(filepath.Join(e.opts.OutputDir, RootName), []byte(root), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", RootName, err)
	}

	if err := e.copyAssets(); err != nil {
		return nil, err
	}

	e.log.Info().
		Int("chapters", len(report.Chapters)).
		Int("rendered", report.Rendered).
		Int("skipped", report.Skipped).
		Str("output", e.opts.OutputDir).
		Msg("Manuscript written")
	return report, nil
}

// preflight verifies every asset exists and returns the template text.
func (e *Exporter) preflight() (string, error) {
	for _, path := range []string{e.makefilePath(), e.opts.FontPath} {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrMissingAsset, path)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrMissingAsset, path)
		}
	}

	data, err := os.ReadFile(e.templatePath())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingAsset, e.templatePath())
	}
	return string(data), nil
}

func (e *Exporter) templatePath() string {
	return filepath.Join(e.opts.TemplateDir, TemplateName)
}

func (e *Exporter) makefilePath() string {
	return filepath.Join(e.opts.TemplateDir, MakefileName)
}

// writeChapter renders one chapter file. The file is closed on every path.
func (e *Exporter) writeChapter(ctx context.Context, ch chapter.Chapter, report *Report) (err error) {
	path := filepath.Join(e.opts.OutputDir, ch.Key.Name()+".tex")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chapter file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close chapter file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "\\chapter{%s}\n\n", ch.Key.Heading())

	var cursor chapter.Cursor
	for i := range ch.Messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := &ch.Messages[i]

		content, xerr := body.Extract(msg)
		if xerr != nil {
			report.Skipped++
			e.log.Warn().Err(xerr).Int64("rowid", msg.RowID).Str("guid", msg.GUID).Msg("Skipping message")
			continue
		}

		block := Block{
			Date:        msg.Time(e.opts.Location),
			FromMe:      msg.IsFromMe,
			ExtraSpace:  cursor.Next(msg.IsFromMe),
			Attachments: content.Attachments,
		}
		if content.Text != nil {
			block.Text = e.sanitizer.Sanitize(ctx, *content.Text)
		}
		if _, err := w.WriteString(block.Render()); err != nil {
			return fmt.Errorf("write chapter file: %w", err)
		}
		report.Rendered++
		report.Attachments += content.Attachments
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write chapter file: %w", err)
	}
	return nil
}
