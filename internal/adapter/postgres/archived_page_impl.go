package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/repository"
)

// ArchivedPageRepoImpl stores rendered pages in the archived_pages table.
type ArchivedPageRepoImpl struct {
	db  Querier
	now func() time.Time
}

// NewArchivedPageRepo creates a new instance of ArchivedPageRepoImpl.
func NewArchivedPageRepo(db Querier) *ArchivedPageRepoImpl {
	return &ArchivedPageRepoImpl{db: db, now: time.Now}
}

// Save stores or replaces the HTML archived for a URL.
func (r *ArchivedPageRepoImpl) Save(ctx context.Context, url, html string) error {
	query := `
		INSERT INTO archived_pages (url, html, archived_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET
			html = EXCLUDED.html,
			archived_at = EXCLUDED.archived_at;
	`
	if _, err := r.db.Exec(ctx, query, url, html, r.now()); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrArchiveFailed, url, err)
	}
	return nil
}

// FindByURL retrieves the archived page for a URL. A URL that was never archived yields
// repository.ErrPageNotArchived.
func (r *ArchivedPageRepoImpl) FindByURL(ctx context.Context, url string) (*entity.ArchivedPage, error) {
	query := `SELECT url, html, archived_at FROM archived_pages WHERE url = $1;`

	var page entity.ArchivedPage
	if err := r.db.QueryRow(ctx, query, url).Scan(&page.URL, &page.HTML, &page.ArchivedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrPageNotArchived, url)
		}
		return nil, fmt.Errorf("failed to read archived page %s: %w", url, err)
	}
	return &page, nil
}
