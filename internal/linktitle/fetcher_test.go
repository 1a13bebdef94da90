// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package linktitle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/msgbook/internal/logger"
)

func testFetcher(cfg Config) *Fetcher {
	cfg.Interval = time.Millisecond
	return New(cfg, WithLogger(logger.Nop()))
}

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestTitle_HTML(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>\n  Hello &amp;\n  World </title></head><body>x</body></html>"))
	})

	title, ok := testFetcher(Config{}).Title(context.Background(), url+"/page")
	require.True(t, ok)
	require.Equal(t, "Hello & World", title)
}

func TestTitle_Charset(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<title>Caf\xe9</title>"))
	})

	title, ok := testFetcher(Config{}).Title(context.Background(), url)
	require.True(t, ok)
	require.Equal(t, "Café", title)
}

func TestTitle_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("<title>Gone</title>"))
		}},
		{"not html", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"x"}`))
		}},
		{"no title", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>nothing</body></html>"))
		}},
		{"blank title", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<title>   </title>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := serve(t, tt.handler)
			_, ok := testFetcher(Config{}).Title(context.Background(), url)
			require.False(t, ok)
		})
	}
}

func TestTitle_Timeout(t *testing.T) {
	release := make(chan struct{})
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, ok := testFetcher(Config{Timeout: 50 * time.Millisecond}).Title(context.Background(), url)
	require.False(t, ok)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestTitle_BodyCap(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head>" + strings.Repeat("<!-- pad -->", 200) + "<title>Late</title>"))
	})

	_, ok := testFetcher(Config{MaxBody: 64}).Title(context.Background(), url)
	require.False(t, ok)
}

func TestTitle_UnsupportedScheme(t *testing.T) {
	f := testFetcher(Config{})
	for _, u := range []string{"ftp://example.com/x", "mailto://someone", "not a url", "http://"} {
		_, ok := f.Title(context.Background(), u)
		require.False(t, ok, u)
	}
}

func TestTitle_CancelledContext(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<title>T</title>"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := testFetcher(Config{}).Title(ctx, url)
	require.False(t, ok)
}

func TestExtractTitle(t *testing.T) {
	title, ok := ExtractTitle(strings.NewReader("<svg><title>first</title></svg><title>second</title>"))
	require.True(t, ok)
	require.Equal(t, "first", title)
}

func TestExtractTitleNormalizes(t *testing.T) {
	title, ok := ExtractTitle(strings.NewReader("<title>Cafe\u0301\n  menu</title>"))
	require.True(t, ok)
	require.Equal(t, "Caf\u00e9 menu", title)
}

func TestDisabled(t *testing.T) {
	_, ok := Disabled().Title(context.Background(), "https://example.com")
	require.False(t, ok)
}
