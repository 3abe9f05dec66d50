package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser renders the page in headless Chrome before extracting text, for
// sites that build their content client side. It needs a local Chrome.
type Browser struct {
	Timeout  time.Duration
	MaxChars int
}

func (b *Browser) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := validate(pageURL); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	html, err := renderHTML(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return readable(html, pageURL, b.MaxChars)
}

func renderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
