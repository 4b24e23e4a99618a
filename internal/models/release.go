// Package models defines the persistent entities of the catalog:
// releases and tracks synced from Discogs, sync runs, checkpoints, and users.
//
// Every entity carries a hard ownership split: fields mirrored from Discogs
// are overwritten by the sync engine on every change, fields entered by the
// user are never touched by it.
package models

import "time"

// Release is one vinyl record in a user's catalog.
//
// Remote-owned fields (Title through DiscogsURI, plus PayloadHash and
// SyncedAt) are dictated by the Discogs API and rewritten whenever the raw
// payload hash changes. User-owned fields (Notes, UserCorrections,
// KeptAfterRemoval) are only ever set by direct user action.
//
// A release that disappears from the remote collection is stamped with
// RemovedFromDiscogsAt — it is flagged, never deleted.
type Release struct {
	ID        int64
	UserID    string
	DiscogsID int64

	// Remote-owned (Discogs metadata).
	Title       string
	Artist      string
	Label       string
	Year        int
	CoverArtURL string
	DiscogsURI  string
	PayloadHash string
	SyncedAt    time.Time

	// Presence tracking for removal detection.
	SeenInSync           bool
	RemovedFromDiscogsAt *time.Time

	// User-owned.
	Notes            string
	UserCorrections  map[string]string
	KeptAfterRemoval bool

	CreatedAt time.Time
	UpdatedAt time.Time

	Tracks []*Track
}

// DisplayTitle returns the user-corrected title when present.
func (r *Release) DisplayTitle() string {
	if v, ok := r.UserCorrections["title"]; ok && v != "" {
		return v
	}
	return r.Title
}

// DisplayArtist returns the user-corrected artist when present.
func (r *Release) DisplayArtist() string {
	if v, ok := r.UserCorrections["artist"]; ok && v != "" {
		return v
	}
	return r.Artist
}

// IsRemovedFromDiscogs reports whether the release was absent from the
// remote collection after the last full sweep.
func (r *Release) IsRemovedFromDiscogs() bool {
	return r.RemovedFromDiscogsAt != nil
}
