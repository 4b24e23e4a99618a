package models

// Track is one track on a release. Position, Title and Duration come from
// Discogs; everything else is DJ metadata entered by the user and immune to
// sync overwrites.
type Track struct {
	ID        int64
	ReleaseID int64

	// Remote-owned.
	Position string
	Title    string
	Duration string

	// User-owned DJ metadata.
	BPM        *int
	MusicalKey string
	Camelot    string
	Energy     *int
	IsPlayable bool
	Notes      string
}

// HasUserData reports whether the track carries any user-entered metadata.
// Tracks that vanish from the Discogs tracklist are only deleted when this
// is false.
func (t *Track) HasUserData() bool {
	return t.BPM != nil ||
		t.MusicalKey != "" ||
		t.Camelot != "" ||
		t.Energy != nil ||
		t.IsPlayable ||
		t.Notes != ""
}
