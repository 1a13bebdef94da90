// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package latex turns message text into LaTeX body text.
//
// Sanitize applies, in order: smart punctuation folding, link annotation,
// escaping of LaTeX specials, removal of U+FE0F and wrapping of emoji runs
// in the emoji font. Link annotations are produced already escaped and are
// never escaped a second time.
package latex

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/msgbook/internal/logger"
)

// =============================================================================
// TITLE RESOLUTION
// =============================================================================

// TitleResolver looks up the human readable title of a web page.
type TitleResolver interface {
	Title(ctx context.Context, url string) (string, bool)
}

// TitleFunc adapts a function to TitleResolver.
type TitleFunc func(ctx context.Context, url string) (string, bool)

// Title calls f.
func (f TitleFunc) Title(ctx context.Context, url string) (string, bool) {
	return f(ctx, url)
}

// excludedTitles are titles of error and interstitial pages. A fetched
// title containing any of them is treated as missing.
var excludedTitles = []string{
	"page not found",
	"not found",
	"403 forbidden",
	"forbidden",
	"access denied",
	"404",
	"500 internal server error",
	"502 bad gateway",
	"503 service unavailable",
	"just a moment",
	"attention required",
}

// usableTitle reports whether title should appear in an annotation.
func usableTitle(title string) bool {
	lower := strings.ToLower(title)
	if strings.TrimSpace(lower) == "" {
		return false
	}
	for _, ex := range excludedTitles {
		if strings.Contains(lower, ex) {
			return false
		}
	}
	return true
}

// urlPattern matches a scheme followed by "://" and the rest of the
// whitespace-delimited token.
var urlPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://\S+`)

// Host returns the authority of url: its third "/"-separated field.
func Host(url string) string {
	parts := strings.SplitN(url, "/", 4)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// =============================================================================
// SANITIZER
// =============================================================================

// DefaultConcurrency bounds title lookups for one message.
const DefaultConcurrency = 4

type titleResult struct {
	title string
	ok    bool
}

// Sanitizer converts message text to LaTeX. Titles are memoized for the
// lifetime of the Sanitizer. Safe for concurrent use.
type Sanitizer struct {
	titles      TitleResolver
	concurrency int
	log         *logger.Logger

	mu    sync.Mutex
	cache map[string]titleResult
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithConcurrency sets how many titles of one message are fetched at once.
func WithConcurrency(n int) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger routes diagnostics to l.
func WithLogger(l *logger.Logger) Option {
	return func(s *Sanitizer) { s.log = l }
}

// New creates a Sanitizer. A nil resolver never finds a title.
func New(titles TitleResolver, opts ...Option) *Sanitizer {
	s := &Sanitizer{
		titles:      titles,
		concurrency: DefaultConcurrency,
		log:         logger.Get(),
		cache:       make(map[string]titleResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns text as LaTeX body text.
func (s *Sanitizer) Sanitize(ctx context.Context, text string) string {
	text = smartChars.Replace(text)

	matches := urlPattern.FindAllStringIndex(text, -1)
	titles := s.resolve(ctx, text, matches)

	var b strings.Builder
	b.Grow(len(text) + len(text)/8)
	last := 0
	for _, m := range matches {
		b.WriteString(Escape(text[last:m[0]]))
		url := text[m[0]:m[1]]
		b.WriteString(annotation(url, titles[url]))
		last = m[1]
	}
	b.WriteString(Escape(text[last:]))

	return WrapEmoji(StripVariationSelectors(b.String()))
}

// annotation renders the link marker for url.
func annotation(url string, r titleResult) string {
	title := ""
	if r.ok && usableTitle(r.title) {
		title = Escape(r.title)
	}
	return `\linkannotation{` + Escape(Host(url)) + `}{` + title + `}`
}

// resolve returns the title of every distinct URL in matches, fetching
// the ones not yet cached concurrently.
func (s *Sanitizer) resolve(ctx context.Context, text string, matches [][]int) map[string]titleResult {
	if len(matches) == 0 {
		return nil
	}

	out := make(map[string]titleResult, len(matches))
	var pending []string

	s.mu.Lock()
	for _, m := range matches {
		url := text[m[0]:m[1]]
		if _, seen := out[url]; seen {
			continue
		}
		if r, ok := s.cache[url]; ok {
			out[url] = r
			continue
		}
		out[url] = titleResult{}
		pending = append(pending, url)
	}
	s.mu.Unlock()

	if len(pending) == 0 || s.titles == nil {
		return out
	}

	results := make([]titleResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, url := range pending {
		g.Go(func() error {
			title, ok := s.titles.Title(gctx, url)
			if !ok {
				s.log.Debug().Str("url", url).Msg("No title for link")
			}
			results[i] = titleResult{title: title, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	for i, url := range pending {
		s.cache[url] = results[i]
		out[url] = results[i]
	}
	s.mu.Unlock()

	return out
}
