package entity

import "time"

// Status is the frontier state of a URL. A URL with no stored entry is StatusUnknown.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusPending Status = "pending"
	StatusVisited Status = "visited"
)

// ParseStatus maps a stored value back to a Status. Anything unrecognised is StatusUnknown.
func ParseStatus(v string) Status {
	switch Status(v) {
	case StatusPending:
		return StatusPending
	case StatusVisited:
		return StatusVisited
	default:
		return StatusUnknown
	}
}

// FrontierEntry is the stored state of a single URL.
type FrontierEntry struct {
	URL       string
	Status    Status
	ExpiresAt time.Time // zero when Status is StatusUnknown
}
