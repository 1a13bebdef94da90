// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/msgbook/internal/chapter"
	"github.com/jeranaias/msgbook/internal/latex"
	"github.com/jeranaias/msgbook/internal/logger"
	"github.com/jeranaias/msgbook/internal/model"
)

const testTemplate = "\\begin{document}\n" +
	"{\\Huge iMessage Book}\n" +
	"ALL RIGHTS RESERVED\n" +
	"\\begin{center}\n  \\textit{Dedicated to you.}\n\\end{center}\n" +
	"\\mainmatter\n"

var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// HELPERS
// =============================================================================

type fixture struct {
	opts Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	tmplDir := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, TemplateName), []byte(testTemplate), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, MakefileName), []byte("all:\n"), 0644))
	font := filepath.Join(root, DefaultFont)
	require.NoError(t, os.WriteFile(font, []byte("font"), 0644))

	return &fixture{opts: Options{
		OutputDir:   filepath.Join(root, "out"),
		TemplateDir: tmplDir,
		FontPath:    font,
		Location:    time.UTC,
		FrontMatter: DefaultFrontMatter(),
	}}
}

func (f *fixture) run(t *testing.T, msgs []model.Message) (*Report, error) {
	t.Helper()
	exp := New(f.opts, latex.New(nil, latex.WithLogger(logger.Nop())), WithLogger(logger.Nop()))
	return exp.Run(context.Background(), msgs)
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.opts.OutputDir, name))
	require.NoError(t, err)
	return string(data)
}

func msg(id int64, at time.Time, fromMe bool, text string) model.Message {
	m := model.Message{
		RowID:    id,
		GUID:     "guid-" + string(rune('a'+id)),
		Date:     at.Sub(appleEpoch).Nanoseconds(),
		IsFromMe: fromMe,
	}
	if text != "" {
		m.Text = &text
	}
	return m
}

func (f *fixture) snapshot(t *testing.T) []model.Message {
	t.Helper()
	var msgs []model.Message
	require.NoError(t, json.Unmarshal([]byte(f.read(t, SnapshotName)), &msgs))
	return msgs
}

func day(month time.Month, d int) time.Time {
	return time.Date(2021, month, d, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// BLOCKS
// =============================================================================

func TestBlock_Render(t *testing.T) {
	date := time.Date(2021, time.March, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{
			name:  "text from me",
			block: Block{Date: date, FromMe: true, Text: "hi"},
			want:  "\\markright{March  7, 2021}\n\\leftmsg{hi}\n\n",
		},
		{
			name:  "attachments only",
			block: Block{Date: date, Attachments: 2},
			want:  "\\markright{March  7, 2021}\n\\rightmsg{\\fbox{2 Attachments}}\n\n",
		},
		{
			name:  "text and one attachment with spacing",
			block: Block{Date: date, Text: "see", Attachments: 1, ExtraSpace: true},
			want:  "\\markright{March  7, 2021}\n\\insertextraspace\n\\rightmsg{see\\enskip\\fbox{1 Attachment}}\n\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.block.Render())
		})
	}
}

// =============================================================================
// ROOT DOCUMENT
// =============================================================================

func TestRenderRoot(t *testing.T) {
	fm := FrontMatter{
		Title:             "Us & Them",
		Copyright:         "(c) 2024 A_B",
		DedicationTitle:   "For you",
		DedicationMessage: "100% of it",
		Preface:           "First para\nstill first.\n\nSecond $ para.",
	}

	doc := RenderRoot(testTemplate, fm, []string{"ch-2021-01", "ch-2021-03"})

	require.Contains(t, doc, `{\Huge Us \& Them}`)
	require.Contains(t, doc, `(c) 2024 A\_B`)
	require.Contains(t, doc, "\\textit{For you}\n\\end{center}\n\\begin{center}\n  \\textit{100\\% of it}")
	require.NotContains(t, doc, "Dedicated to you.")

	preface := strings.Index(doc, `\chapter*{Preface}`)
	mainmatter := strings.Index(doc, `\mainmatter`)
	require.GreaterOrEqual(t, preface, 0)
	require.Less(t, preface, mainmatter)
	require.Equal(t, 1, strings.Count(doc, `\mainmatter`))
	require.Contains(t, doc, "First para\\newline\nstill first.\n\nSecond \\$ para.")

	require.True(t, strings.HasSuffix(doc,
		"\\mainmatter\n\\include{ch-2021-01}\n\\include{ch-2021-03}\n\\end{document}\n"))
}

func TestRenderRoot_Defaults(t *testing.T) {
	doc := RenderRoot(testTemplate, DefaultFrontMatter(), nil)
	require.Equal(t, testTemplate+"\\end{document}\n", doc)
}

// =============================================================================
// RUN
// =============================================================================

func TestRun_Chapters(t *testing.T) {
	f := newFixture(t)
	msgs := []model.Message{
		msg(1, day(time.January, 3), true, "Happy new year! 🎉"),
		msg(2, day(time.January, 3), true, "Cost: $5 & 10% off_now"),
		msg(3, day(time.January, 4), false, "thanks"),
		msg(4, day(time.March, 1), true, "march"),
	}

	report, err := f.run(t, msgs)
	require.NoError(t, err)
	require.Equal(t, []string{"ch-2021-01", "ch-2021-03"}, report.Chapters)
	require.Equal(t, 4, report.Rendered)
	require.Zero(t, report.Skipped)

	jan := f.read(t, "ch-2021-01.tex")
	require.True(t, strings.HasPrefix(jan, "\\chapter{January 2021}\n\n"))
	require.Contains(t, jan, `\leftmsg{Happy new year! {\emojifont 🎉}}`)
	require.Contains(t, jan, "\\insertextraspace\n\\leftmsg{Cost: \\$5 \\& 10\\% off\\_now}")
	require.Equal(t, 1, strings.Count(jan, `\insertextraspace`))
	require.Contains(t, jan, `\rightmsg{thanks}`)

	// A new chapter starts with a fresh alternation cursor.
	mar := f.read(t, "ch-2021-03.tex")
	require.Equal(t, "\\chapter{March 2021}\n\n\\markright{March  1, 2021}\n\\leftmsg{march}\n\n", mar)

	root := f.read(t, RootName)
	require.True(t, strings.HasSuffix(root, "\\include{ch-2021-01}\n\\include{ch-2021-03}\n\\end{document}\n"))

	require.Len(t, f.snapshot(t), 4)

	require.FileExists(t, filepath.Join(f.opts.OutputDir, MakefileName))
	require.FileExists(t, filepath.Join(f.opts.OutputDir, DefaultFont))
}

func TestRun_SameSenderAcrossChapters(t *testing.T) {
	f := newFixture(t)
	msgs := []model.Message{
		msg(1, day(time.January, 30), true, "end of january"),
		msg(2, day(time.February, 1), true, "start of february"),
		msg(3, day(time.February, 1), true, "again"),
	}

	_, err := f.run(t, msgs)
	require.NoError(t, err)

	feb := f.read(t, "ch-2021-02.tex")
	require.True(t, strings.HasPrefix(feb,
		"\chapter{February 2021}

\markright{February  1, 2021}
\leftmsg{start of february}

"))
	require.Equal(t, 1, strings.Count(feb, `\insertextraspace`))
	require.Contains(t, feb, "\insertextraspace
\leftmsg{again}")
}

func TestRun_CustomFontName(t *testing.T) {
	f := newFixture(t)
	custom := filepath.Join(filepath.Dir(f.opts.FontPath), "MyEmoji.ttf")
	require.NoError(t, os.Rename(f.opts.FontPath, custom))
	f.opts.FontPath = custom

	_, err := f.run(t, []model.Message{msg(1, day(time.July, 1), true, "x")})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.opts.OutputDir, DefaultFont))
	require.NoError(t, err)
	require.Equal(t, "font", string(data))
	require.NoFileExists(t, filepath.Join(f.opts.OutputDir, "MyEmoji.ttf"))
}

func TestRun_SkippedMessageKeepsCursor(t *testing.T) {
	f := newFixture(t)
	msgs := []model.Message{
		msg(1, day(time.May, 1), true, "one"),
		msg(2, day(time.May, 1), false, ""), // no payload and no attachments
		msg(3, day(time.May, 2), true, "two"),
	}

	report, err := f.run(t, msgs)
	require.NoError(t, err)
	require.Equal(t, 2, report.Rendered)
	require.Equal(t, 1, report.Skipped)

	may := f.read(t, "ch-2021-05.tex")
	require.Contains(t, may, "\\insertextraspace\n\\leftmsg{two}")
	require.NotContains(t, may, `\rightmsg`)
}

func TestRun_AttachmentsOnly(t *testing.T) {
	f := newFixture(t)
	m := msg(1, day(time.June, 9), false, "\uFFFC\uFFFC")

	report, err := f.run(t, []model.Message{m})
	require.NoError(t, err)
	require.Equal(t, 2, report.Attachments)

	june := f.read(t, "ch-2021-06.tex")
	require.Contains(t, june, `\rightmsg{\fbox{2 Attachments}}`)
	require.NotContains(t, june, `\enskip`)
}

func TestRun_Empty(t *testing.T) {
	f := newFixture(t)

	report, err := f.run(t, nil)
	require.NoError(t, err)
	require.Empty(t, report.Chapters)

	require.Equal(t, "[]", f.read(t, SnapshotName))
	root := f.read(t, RootName)
	require.NotContains(t, root, `\include`)
	require.True(t, strings.HasSuffix(root, "\\end{document}\n"))
}

func TestRun_MissingAssets(t *testing.T) {
	for _, name := range []string{TemplateName, MakefileName, "font"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			if name == "font" {
				require.NoError(t, os.Remove(f.opts.FontPath))
			} else {
				require.NoError(t, os.Remove(filepath.Join(f.opts.TemplateDir, name)))
			}

			_, err := f.run(t, []model.Message{msg(1, day(time.July, 1), true, "x")})
			require.True(t, errors.Is(err, ErrMissingAsset), "got %v", err)
			require.NoDirExists(t, f.opts.OutputDir)
		})
	}
}

func TestRun_OutOfOrder(t *testing.T) {
	f := newFixture(t)
	msgs := []model.Message{
		msg(1, day(time.August, 2), true, "later"),
		msg(2, day(time.August, 1), true, "earlier"),
	}

	_, err := f.run(t, msgs)
	require.True(t, errors.Is(err, chapter.ErrOutOfOrder))
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp := New(f.opts, nil, WithLogger(logger.Nop()))
	_, err := exp.Run(ctx, []model.Message{msg(1, day(time.July, 1), true, "x")})
	require.ErrorIs(t, err, context.Canceled)
}
