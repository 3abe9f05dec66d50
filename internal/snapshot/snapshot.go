// Package snapshot fetches a readable text excerpt of a web page. The excerpt
// is optional grounding for company research.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/resonance/config"
)

const (
	userAgent       = "ResonanceResearch/1.0"
	defaultTimeout  = 20 * time.Second
	defaultMaxChars = 6000
	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

var ErrInvalidURL = errors.New("invalid url")

// Fetcher returns readable text for a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// New returns the fetcher selected by cfg.Renderer. It returns nil, nil when
// snapshots are disabled.
func New(cfg config.SnapshotConfig) (Fetcher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	switch strings.ToLower(cfg.Renderer) {
	case "", RendererHTTP:
		return NewHTTP(timeout, maxChars, nil), nil
	case RendererBrowser:
		return &Browser{Timeout: timeout, MaxChars: maxChars}, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot renderer %q", cfg.Renderer)
	}
}

// readable runs readability over html and returns the trimmed article text.
func readable(html, pageURL string, maxChars int) (string, error) {
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if title := strings.TrimSpace(article.Title); title != "" {
		text = title + "\n\n" + text
	}
	return clip(collapseBlankLines(text), maxChars), nil
}

func validate(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
