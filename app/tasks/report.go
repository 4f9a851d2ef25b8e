package tasks

import "time"

type FeedStatus string

const (
	FeedStatusOK          FeedStatus = "ok"
	FeedStatusFetchFailed FeedStatus = "fetch_failed"
	FeedStatusLoadFailed  FeedStatus = "load_failed"
	FeedStatusAborted     FeedStatus = "aborted"
)

// StopReason says why a feed's entries were not inspected to the end.
type StopReason string

const (
	StopNone         StopReason = ""
	StopSeen         StopReason = "seen"
	StopBootstrapCap StopReason = "bootstrap_cap"
)

type FeedResult struct {
	URL            string     `json:"url"`
	Name           string     `json:"name"`
	Status         FeedStatus `json:"status"`
	Sent           int        `json:"sent"`
	SendErrors     int        `json:"send_errors"`
	SkippedStale   int        `json:"skipped_stale"`
	SkippedUndated int        `json:"skipped_undated"`
	SkippedInvalid int        `json:"skipped_invalid"`
	StopReason     StopReason `json:"stop_reason,omitempty"`
	Error          string     `json:"error,omitempty"`
}

type RunReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Feeds      []FeedResult `json:"feeds"`
	TotalSent  int          `json:"total_sent"`
	Aborted    bool         `json:"aborted"`
	Error      string       `json:"error,omitempty"`
}

func (r *RunReport) add(result FeedResult) {
	r.Feeds = append(r.Feeds, result)
	r.TotalSent += result.Sent
}
