package response

import "time"

// FrontierEntryResponse is a DTO for one URL, mirroring entity.FrontierEntry
type FrontierEntryResponse struct {
	URL       string     `json:"url"`
	Status    string     `json:"status"` // "pending" or "visited"
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type FrontierSummaryResponse struct {
	Size          int64  `json:"size"`
	KeysLimit     int64  `json:"keys_limit"`
	Remaining     int64  `json:"remaining"`
	ResumePointer string `json:"resume_pointer,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Frontier string `json:"frontier"`
}

type ArchivedPageResponse struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	ArchivedAt time.Time `json:"archived_at"`
}
