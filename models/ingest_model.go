package models

import "time"

type IngestJob struct {
	ID         string    `json:"id"`
	URLs       []string  `json:"urls"`
	Recreate   bool      `json:"recreate"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type IngestReport struct {
	Sources      int      `json:"sources"`
	FailedURLs   []string `json:"failed_urls,omitempty"`
	Chunks       int      `json:"chunks"`
	PointsStored int      `json:"points_stored"`
}
