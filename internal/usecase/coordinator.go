package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/pkg/metrics"
	"go.uber.org/zap"
)

// Coordinator defines the interface for processing a single frontier URL.
type Coordinator interface {
	ProcessOne(ctx context.Context, url string) error
}

type coordinatorUseCase struct {
	frontier  repository.FrontierRepository
	fetcher   repository.PageFetcher
	archiver  repository.PageArchiver
	keysLimit int64
	logger    *zap.Logger
}

// NewCoordinator creates a new instance of the crawl coordinator.
func NewCoordinator(
	frontier repository.FrontierRepository,
	fetcher repository.PageFetcher,
	archiver repository.PageArchiver,
	keysLimit int64,
	logger *zap.Logger,
) Coordinator {
	return &coordinatorUseCase{
		frontier:  frontier,
		fetcher:   fetcher,
		archiver:  archiver,
		keysLimit: keysLimit,
		logger:    logger,
	}
}

// ProcessOne fetches pageURL, snapshots the frontier size, marks pageURL visited, archives it
// and enqueues its same-origin links within the budget. Any error aborts the visit. Nothing
// already written is rolled back, so a failure after MarkVisited leaves the URL visited but
// possibly unarchived.
func (uc *coordinatorUseCase) ProcessOne(ctx context.Context, pageURL string) error {
	logger := uc.logger.With(zap.String("url", pageURL))
	startTime := time.Now()

	err := uc.process(ctx, pageURL, logger)

	metrics.CrawlDuration.WithLabelValues(hostOf(pageURL)).Observe(time.Since(startTime).Seconds())
	if err != nil {
		metrics.PagesProcessedTotal.WithLabelValues("failure").Inc()
		metrics.CrawlFailuresTotal.WithLabelValues(errorType(err)).Inc()
		return err
	}
	metrics.PagesProcessedTotal.WithLabelValues("success").Inc()
	return nil
}

func (uc *coordinatorUseCase) process(ctx context.Context, pageURL string, logger *zap.Logger) error {
	logger.Debug("fetching page")
	page, err := uc.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	// The budget is sized from the frontier as it was when this visit started, before pageURL
	// itself is written.
	size, err := uc.frontier.Size(ctx)
	if err != nil {
		return fmt.Errorf("failed to read frontier size: %w", err)
	}
	budget := NewBudget(uc.keysLimit, size)

	if err := uc.frontier.MarkVisited(ctx, pageURL); err != nil {
		return fmt.Errorf("failed to mark %s visited: %w", pageURL, err)
	}

	if err := uc.archiver.Save(ctx, pageURL, page.HTML); err != nil {
		if !errors.Is(err, repository.ErrArchiveFailed) {
			err = fmt.Errorf("%w: %w", repository.ErrArchiveFailed, err)
		}
		return fmt.Errorf("failed to archive %s: %w", pageURL, err)
	}

	candidates := FilterSameOrigin(pageURL, page.Links)
	metrics.LinksSkippedTotal.WithLabelValues("other_origin").Add(float64(len(page.Links) - len(candidates)))

	var known, overBudget int
	for i, link := range candidates {
		// The allowance never grows inside a visit, so the rest of the list is over budget too.
		if !budget.Allow() {
			overBudget = len(candidates) - i
			break
		}

		exists, err := uc.frontier.Exists(ctx, link)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", link, err)
		}
		if exists {
			known++
			continue
		}

		if err := uc.frontier.MarkPending(ctx, link); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", link, err)
		}
		budget.Consume()
	}

	metrics.FrontierSize.Set(float64(size))
	metrics.LinksEnqueuedTotal.Add(float64(budget.Added()))
	metrics.LinksSkippedTotal.WithLabelValues("known").Add(float64(known))
	metrics.LinksSkippedTotal.WithLabelValues("budget").Add(float64(overBudget))

	logger.Info("page processed",
		zap.Int("status_code", page.StatusCode),
		zap.Int("links", len(page.Links)),
		zap.Int("same_origin", len(candidates)),
		zap.Int64("enqueued", budget.Added()),
		zap.Int("known", known),
		zap.Int("over_budget", overBudget),
		zap.Int64("frontier_size_at_start", size),
	)
	return nil
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return "unknown"
}

func errorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrFrontierUnavailable):
		return "frontier"
	case errors.Is(err, repository.ErrCrawlTimeout):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrArchiveFailed):
		return "archive"
	default:
		return "unknown"
	}
}
