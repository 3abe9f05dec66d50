package snapshot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/resonance/config"
)

const articleHTML = `<!doctype html>
<html><head><title>Acme Analytics</title></head>
<body>
<nav><a href="/">Home</a> <a href="/pricing">Pricing</a></nav>
<article>
<h1>Acme Analytics</h1>
<p>Acme Analytics helps mid-sized retailers forecast demand across every store and channel. Our platform connects point of sale, inventory and marketing data so planners can see what will sell before it sells.</p>
<p>Teams use Acme to cut stockouts, reduce markdowns and plan promotions with confidence. Forecasts refresh every night and explain which signals moved them, so merchants trust the numbers they act on.</p>
<p>Founded in 2017, Acme serves more than four hundred retail brands in North America and Europe, from specialty apparel to regional grocery chains with hundreds of locations.</p>
</article>
<footer>Copyright Acme</footer>
</body></html>`

func TestHTTPFetchExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewHTTP(time.Second, 0, srv.Client())
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(text, "forecast demand") {
		t.Fatalf("expected article text, got %q", text)
	}
}

func TestHTTPFetchClipsToMaxChars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewHTTP(time.Second, 40, srv.Client())
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(text) > 40 {
		t.Fatalf("expected at most 40 bytes, got %d", len(text))
	}
}

func TestHTTPFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTP(time.Second, 100, srv.Client())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetchRejectsNonHTTPURL(t *testing.T) {
	f := NewHTTP(time.Second, 100, nil)
	for _, raw := range []string{"", "ftp://example.com", "example.com", "https://"} {
		if _, err := f.Fetch(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("%q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
	b := &Browser{Timeout: time.Second, MaxChars: 100}
	if _, err := b.Fetch(context.Background(), "mailto:a@b.c"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("browser: expected ErrInvalidURL, got %v", err)
	}
}

func TestNewSelectsRenderer(t *testing.T) {
	f, err := New(config.SnapshotConfig{})
	if err != nil || f != nil {
		t.Fatalf("disabled snapshot should yield nil fetcher, got %v %v", f, err)
	}

	f, err = New(config.SnapshotConfig{Enabled: true, Renderer: "http"})
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if h, ok := f.(*HTTP); !ok || h.maxChars != defaultMaxChars {
		t.Fatalf("expected *HTTP with default max chars, got %#v", f)
	}

	f, err = New(config.SnapshotConfig{Enabled: true, Renderer: "Browser", Timeout: 3 * time.Second, MaxChars: 10})
	if err != nil {
		t.Fatalf("browser: %v", err)
	}
	if b, ok := f.(*Browser); !ok || b.Timeout != 3*time.Second || b.MaxChars != 10 {
		t.Fatalf("unexpected browser fetcher %#v", f)
	}

	if _, err := New(config.SnapshotConfig{Enabled: true, Renderer: "lynx"}); err == nil {
		t.Fatal("expected error for unknown renderer")
	}
}

func TestCollapseBlankLines(t *testing.T) {
	got := collapseBlankLines("a\n\n\n  \nb\n c ")
	if got != "a\n\nb\nc" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestClipKeepsRuneBoundary(t *testing.T) {
	got := clip("héllo", 2)
	if got != "h" {
		t.Fatalf("expected h, got %q", got)
	}
}
