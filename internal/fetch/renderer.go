package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Renderer produces the post-JavaScript DOM of a detail page.
type Renderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
	Close() error
}

// ChromedpRenderer renders detail pages in headless Chrome. The portal's
// detail pages assemble their content client-side, so a plain HTTP GET
// returns an empty shell.
type ChromedpRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	timeout         time.Duration
	userAgent       string
}

// NewChromedpRenderer starts a shared headless browser. Individual renders
// open tabs against it, which is much cheaper than a browser per page.
func NewChromedpRenderer(userAgent string, timeout time.Duration, logger *zap.Logger) (*ChromedpRenderer, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		timeout:         timeout,
		userAgent:       userAgent,
	}, nil
}

// Render navigates a fresh tab to rawURL and returns the rendered DOM.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	if r.timeout > 0 {
		var cancelTask context.CancelFunc
		tabCtx, cancelTask = context.WithTimeout(tabCtx, r.timeout)
		defer cancelTask()
	}

	stopForward := forwardCancel(ctx, cancelTab)
	defer stopForward()

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.userAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("chromedp run: %w", err)
	}
	return []byte(html), nil
}

// Close tears down the shared browser and its allocator.
func (r *ChromedpRenderer) Close() error {
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
