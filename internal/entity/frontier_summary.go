package entity

// FrontierSummary is a point-in-time view of the whole frontier.
type FrontierSummary struct {
	Size          int64
	KeysLimit     int64
	Remaining     int64
	ResumePointer string
}
