package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes bounds how much HTML is read from a single page.
const maxBodyBytes = 4 << 20

// HTTP fetches a page with a plain GET. It does not run scripts.
type HTTP struct {
	client   *http.Client
	maxChars int
}

func NewHTTP(timeout time.Duration, maxChars int, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{client: client, maxChars: maxChars}
}

func (h *HTTP) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := validate(pageURL); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	return readable(string(body), pageURL, h.maxChars)
}
