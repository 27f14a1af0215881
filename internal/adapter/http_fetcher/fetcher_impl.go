package http_fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/proxy"
	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/pkg/utils"
	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20

// HTTPFetcher fetches raw HTML without running scripts. Anchors are resolved the way a browser
// reports element.href: against <base href> when present, otherwise the final response URL.
type HTTPFetcher struct {
	client  *http.Client
	proxies *proxy.Manager
	logger  *zap.Logger
}

func NewHTTPFetcher(timeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxies.ProxyFunc()
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout, Transport: transport},
		proxies: proxies,
		logger:  logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*entity.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	req.Header.Set("User-Agent", f.proxies.GetUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyError(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyError(url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse html: %w", repository.ErrNavigationFailed, url, err)
	}

	base := resp.Request.URL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = resolved
		}
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(href))
		if err != nil {
			f.logger.Debug("skipping unparsable href", zap.String("url", url), zap.String("href", href))
			return
		}
		links = append(links, abs)
	})

	return &entity.Page{
		URL:        url,
		HTML:       string(body),
		Links:      links,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

func classifyError(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", repository.ErrCrawlTimeout, url, err)
	}
	return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
}
