// internal/host/cdphost/browser.go
package cdphost

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserOptions selects the browser a page is opened in.
type BrowserOptions struct {
	// RemoteURL is a DevTools websocket endpoint. Empty launches a local browser.
	RemoteURL string
	Headless  bool
}

// OpenPage starts (or attaches to) a browser, opens pageURL in a new tab and returns
// the tab's context. cancel closes the tab and, for a local browser, the browser itself.
func OpenPage(parent context.Context, pageURL string, opts BrowserOptions, logger *zap.Logger) (ctx context.Context, cancel context.CancelFunc, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("cdphost")

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		allocatorOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, allocatorOpts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	cancel = func() {
		tabCancel()
		allocCancel()
	}

	if err := chromedp.Run(tabCtx, chromedp.Navigate(pageURL)); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to open %s: %w", pageURL, err)
	}
	log.Info("Page opened", zap.String("url", pageURL), zap.Bool("remote", opts.RemoteURL != ""))
	return tabCtx, cancel, nil
}
