package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/repository"
	"go.uber.org/zap"
)

// linksScript mirrors what a browser reports as each anchor's href: already resolved against the document base.
const linksScript = `Array.from(document.querySelectorAll('a[href]'), (e) => e.href)`

// Options configures the headless browser.
type Options struct {
	ExecPath        string // empty uses chromedp's lookup of a local Chrome
	UserAgent       string
	ProxyServer     string
	PageLoadTimeout time.Duration
}

// ChromedpFetcher renders pages in one headless Chrome, opening a new tab per URL.
type ChromedpFetcher struct {
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	browserCtx    context.Context
	timeout       time.Duration
	logger        *zap.Logger
}

// NewChromedpFetcher starts the browser. Close must be called to shut it down.
func NewChromedpFetcher(opts Options, logger *zap.Logger) (*ChromedpFetcher, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// Running with no actions launches the browser, so a missing Chrome fails here and not on the first URL.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromedpFetcher{
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		browserCtx:    browserCtx,
		timeout:       opts.PageLoadTimeout,
		logger:        logger,
	}, nil
}

// Fetch navigates to url, then reads the rendered document and every anchor href.
func (c *ChromedpFetcher) Fetch(ctx context.Context, url string) (*entity.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	var statusCode atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			statusCode.CompareAndSwap(0, resp.Response.Status)
		}
	})

	var html string
	var links []string
	startTime := time.Now()
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(linksScript, &links),
	)
	if err != nil {
		return nil, classifyError(url, err)
	}

	c.logger.Debug("page rendered",
		zap.String("url", url),
		zap.Int64("status_code", statusCode.Load()),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &entity.Page{
		URL:        url,
		HTML:       html,
		Links:      links,
		StatusCode: int(statusCode.Load()),
		FetchedAt:  time.Now(),
	}, nil
}

// Close shuts the browser down.
func (c *ChromedpFetcher) Close() error {
	err := chromedp.Cancel(c.browserCtx)
	c.cancelBrowser()
	c.cancelAlloc()
	return err
}

func classifyError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", repository.ErrCrawlTimeout, url, err)
	}
	return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
}
