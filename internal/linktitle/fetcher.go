// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package linktitle fetches the titles of web pages linked from messages.
//
// Every failure mode (unsupported scheme, network error, timeout, non-2xx
// status, non-HTML response, missing title) is reported the same way: no
// title. Callers never see an error.
package linktitle

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/jeranaias/msgbook/internal/logger"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds options for the Fetcher.
type Config struct {
	// Timeout bounds one request including the body read (default: 5s)
	Timeout time.Duration

	// Interval is the minimum spacing between requests (default: 100ms)
	Interval time.Duration

	// Burst is how many requests may start back to back (default: 4)
	Burst int

	// MaxBody caps how much of a response is read (default: 1 MiB)
	MaxBody int64

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Second,
		Interval:  100 * time.Millisecond,
		Burst:     4,
		MaxBody:   1 << 20,
		UserAgent: "msgbook/1.0 (+link titles)",
	}
}

// =============================================================================
// FETCHER
// =============================================================================

// Fetcher retrieves page titles over HTTP. Safe for concurrent use.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger routes diagnostics to l.
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a Fetcher. Zero fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Fetcher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = def.MaxBody
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	f := &Fetcher{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		log:     logger.Get(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Title fetches rawURL and returns the text of its <title> element.
func (f *Fetcher) Title(ctx context.Context, rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug().Err(err).Str("url", rawURL).Msg("Title fetch failed")
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.Debug().Int("status", resp.StatusCode).Str("url", rawURL).Msg("Title fetch rejected")
		return "", false
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return "", false
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.cfg.MaxBody), contentType)
	if err != nil {
		return "", false
	}
	title, ok := ExtractTitle(body)
	if !ok {
		return "", false
	}
	return title, true
}

// isHTML reports whether a Content-Type header names an HTML document.
func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// ExtractTitle reads an HTML document up to the end of its first <title>
// element and returns the title in NFC with whitespace collapsed.
func ExtractTitle(r io.Reader) (string, bool) {
	z := html.NewTokenizer(r)
	var (
		inTitle bool
		b       strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			// EOF inside an unterminated <title> still counts.
			return collapse(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Title {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && atom.Lookup(name) == atom.Title {
				return collapse(b.String())
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		}
	}
}

func collapse(s string) (string, bool) {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	return s, s != ""
}

// =============================================================================
// DISABLED
// =============================================================================

// Off is a resolver that never finds a title.
type Off struct{}

// Disabled returns the resolver used when link titles are turned off.
func Disabled() Off { return Off{} }

// Title always reports no title.
func (Off) Title(context.Context, string) (string, bool) { return "", false }
