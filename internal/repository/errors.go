package repository

import "errors"

var (
	// ErrFrontierUnavailable wraps any failure talking to the frontier backend. It is fatal to a run.
	ErrFrontierUnavailable = errors.New("frontier store unavailable")

	ErrNavigationFailed = errors.New("navigation failed")
	ErrCrawlTimeout     = errors.New("navigation timed out")
	ErrArchiveFailed    = errors.New("archive write failed")

	// ErrPageNotArchived is returned by ArchiveReader for a URL with no stored page.
	ErrPageNotArchived = errors.New("page not archived")
)
