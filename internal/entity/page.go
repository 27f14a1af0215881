package entity

import "time"

// Page is what a fetcher returns for one rendered URL.
type Page struct {
	URL        string
	HTML       string
	Links      []string // anchor hrefs in document order, absolute where the fetcher can resolve them
	StatusCode int      // 0 when the fetcher could not observe it
	FetchedAt  time.Time
}

// ArchivedPage mirrors the `archived_pages` PostgreSQL table schema.
type ArchivedPage struct {
	URL        string
	HTML       string
	ArchivedAt time.Time
}
