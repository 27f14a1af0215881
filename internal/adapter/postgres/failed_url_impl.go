package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/user/frontier-crawler/internal/repository"
)

// FailedURLRepoImpl keeps a durable per-URL failure log. Unlike the frontier's own counters it
// does not expire.
type FailedURLRepoImpl struct {
	db  Querier
	now func() time.Time
}

// NewFailedURLRepo creates a new instance of FailedURLRepoImpl.
func NewFailedURLRepo(db Querier) *FailedURLRepoImpl {
	return &FailedURLRepoImpl{db: db, now: time.Now}
}

// IncrementFailures creates or updates the record for a failed URL and returns its retry count.
func (r *FailedURLRepoImpl) IncrementFailures(ctx context.Context, url, reason string) (int64, error) {
	query := `
		INSERT INTO failed_urls (url, failure_reason, retry_count, last_attempt_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (url) DO UPDATE SET
			failure_reason = EXCLUDED.failure_reason,
			retry_count = failed_urls.retry_count + 1,
			last_attempt_at = EXCLUDED.last_attempt_at
		RETURNING retry_count;
	`
	var count int64
	if err := r.db.QueryRow(ctx, query, url, reason, r.now()).Scan(&count); err != nil {
		return 0, unavailable("increment failures", err)
	}
	return count, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %w", repository.ErrFrontierUnavailable, op, err)
}
