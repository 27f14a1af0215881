package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/pkg/metrics"
	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned when a URL fails more often than the configured maximum.
var ErrRetriesExhausted = errors.New("retry limit reached")

// Scheduler walks the frontier one URL at a time until no pending URL is left.
//
// Only one Scheduler may run against a frontier. Nothing detects a second one: two schedulers
// would race on the resume pointer and on the budget snapshot.
type Scheduler struct {
	frontier    repository.FrontierRepository
	failures    repository.FailureRepository
	coordinator Coordinator
	seed        string
	maxFailures int64
	logger      *zap.Logger
}

// NewScheduler creates a Scheduler. maxFailures <= 0 disables the per-URL failure limit, in which
// case failures may be nil.
func NewScheduler(
	frontier repository.FrontierRepository,
	failures repository.FailureRepository,
	coordinator Coordinator,
	seed string,
	maxFailures int64,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		frontier:    frontier,
		failures:    failures,
		coordinator: coordinator,
		seed:        seed,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// Run starts from the resume pointer, or the seed when there is none, and processes pending URLs
// until the frontier has none left. A failed visit is retried from the resume pointer, or the same
// URL if the pointer is still empty. Failures of the first URL, frontier errors and context
// cancellation end the run.
func (s *Scheduler) Run(ctx context.Context) error {
	start, err := s.frontier.ResumePointer(ctx)
	if err != nil {
		return fmt.Errorf("failed to read resume pointer: %w", err)
	}
	if start == "" {
		start = s.seed
		s.logger.Info("starting crawl from seed", zap.String("url", start))
	} else {
		s.logger.Info("resuming crawl from last crawled URL", zap.String("url", start))
	}

	if err := s.coordinator.ProcessOne(ctx, start); err != nil {
		return fmt.Errorf("failed to process start URL %s: %w", start, err)
	}

	next, err := s.nextPending(ctx)
	if err != nil {
		return err
	}
	for next != "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		if procErr := s.coordinator.ProcessOne(ctx, next); procErr != nil {
			if next, err = s.recover(ctx, next, procErr); err != nil {
				return err
			}
			continue
		}

		if next, err = s.nextPending(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("crawling completed")
	return nil
}

func (s *Scheduler) nextPending(ctx context.Context) (string, error) {
	pending, err := s.frontier.ListPending(ctx, 1)
	if err != nil {
		return "", fmt.Errorf("failed to select next pending URL: %w", err)
	}
	if len(pending) == 0 {
		return "", nil
	}
	return pending[0], nil
}

// recover picks the URL to try after failed could not be processed.
func (s *Scheduler) recover(ctx context.Context, failed string, cause error) (string, error) {
	if errors.Is(cause, repository.ErrFrontierUnavailable) || ctx.Err() != nil {
		return "", cause
	}
	metrics.RecoveriesTotal.Inc()

	if s.maxFailures > 0 && s.failures != nil {
		n, err := s.failures.IncrementFailures(ctx, failed, cause.Error())
		if err != nil {
			return "", fmt.Errorf("failed to count failure of %s: %w", failed, err)
		}
		if n >= s.maxFailures {
			return "", fmt.Errorf("%w: %s failed %d times: %w", ErrRetriesExhausted, failed, n, cause)
		}
	}

	last, err := s.frontier.ResumePointer(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read resume pointer: %w", err)
	}
	retry := last
	if retry == "" {
		retry = failed
	}

	s.logger.Warn("processing failed, retrying from the last crawled URL",
		zap.String("url", failed),
		zap.String("retry_url", retry),
		zap.Error(cause),
	)
	return retry, nil
}
