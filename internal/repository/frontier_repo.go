package repository

import (
	"context"

	"github.com/user/frontier-crawler/internal/entity"
)

// FrontierRepository is the shared, durable URL -> status mapping plus the resume pointer.
//
// Implementations make no attempt to exclude a second writer. Size and a later MarkPending
// are not atomic with respect to each other.
type FrontierRepository interface {
	// Get returns the entry for url. An absent entry is returned with StatusUnknown and no error.
	Get(ctx context.Context, url string) (entity.FrontierEntry, error)
	// Exists reports whether url has a live entry in any status.
	Exists(ctx context.Context, url string) (bool, error)
	// MarkPending creates or overwrites url as pending and resets its TTL.
	MarkPending(ctx context.Context, url string) error
	// MarkVisited creates or overwrites url as visited, resets its TTL and moves the resume pointer to url.
	MarkVisited(ctx context.Context, url string) error
	// Size counts live entries. It is a full scan.
	Size(ctx context.Context) (int64, error)
	// ListPending returns pending URLs in the backend's enumeration order. limit <= 0 returns all.
	ListPending(ctx context.Context, limit int) ([]string, error)
	// ResumePointer returns the URL most recently marked visited, or "" if none.
	ResumePointer(ctx context.Context) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// FailureRepository counts processing failures per URL.
type FailureRepository interface {
	// IncrementFailures bumps the failure count of url and returns the new value.
	// Backends that keep a failure log store reason alongside the count.
	IncrementFailures(ctx context.Context, url, reason string) (int64, error)
}
