package repository

import (
	"context"

	"github.com/user/frontier-crawler/internal/entity"
)

//go:generate mockgen -destination=../mocks/mock_repository.go -package=mocks github.com/user/frontier-crawler/internal/repository PageFetcher,PageArchiver

// PageFetcher defines the contract for rendering a page and collecting its anchors.
type PageFetcher interface {
	// Fetch loads url and returns its rendered HTML and anchor links.
	// Failures wrap ErrNavigationFailed or ErrCrawlTimeout.
	Fetch(ctx context.Context, url string) (*entity.Page, error)
}

// PageArchiver defines the contract for durably storing rendered pages.
type PageArchiver interface {
	// Save stores html for url. Implementations own any encoding of url into a storage key.
	Save(ctx context.Context, url, html string) error
}

// ArchiveReader is implemented by archivers that can serve a page back.
type ArchiveReader interface {
	// FindByURL returns the latest archived page for url, or an error wrapping ErrPageNotArchived.
	FindByURL(ctx context.Context, url string) (*entity.ArchivedPage, error)
}
