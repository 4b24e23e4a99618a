package models

import "time"

// Checkpoint is the durable resume pointer of a sync run. It exists only
// while its run is running or paused and records the next page to fetch, so
// a crash can at worst re-fetch the in-flight page, never skip one.
//
// Cursor carries an opaque pagination token for cursor-based APIs; Discogs
// collection pagination is page-numbered, so it is normally empty.
type Checkpoint struct {
	RunID     string
	UserID    string
	NextPage  int
	Cursor    string
	UpdatedAt time.Time
}
