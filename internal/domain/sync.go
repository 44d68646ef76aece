package domain

import "time"

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Pages     int
	Fetched   int
	Saved     int
	Failed    int
	Published int
	Duration  time.Duration
}
