package discogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Discogs disambiguates same-named artists with a numeric suffix,
// e.g. "Mirage (2)". The suffix is noise for display and matching.
var artistSuffixRe = regexp.MustCompile(`\s*\(\d+\)$`)

// Release is a parsed, source-agnostic view of one remote collection item —
// the shape the reconciler consumes. PayloadHash is the SHA-256 of the raw
// collection item JSON and changes whenever Discogs serves different data.
type Release struct {
	DiscogsID   int64
	Title       string
	Artist      string
	Label       string
	Year        int
	CoverArtURL string
	DiscogsURI  string
	PayloadHash string
	Tracks      []TrackInfo
}

// TrackInfo is the remote-owned slice of one tracklist row.
type TrackInfo struct {
	Position string
	Title    string
	Duration string
}

// ParseRelease flattens a collection item (and optional release details)
// into a Release. details may be nil when tracklist fetching is disabled;
// the Tracks slice is then empty and existing local tracks are left alone.
func ParseRelease(item CollectionItem, details *ReleaseDetails) Release {
	info := item.BasicInformation

	names := make([]string, 0, len(info.Artists))
	for _, a := range info.Artists {
		names = append(names, cleanArtistName(a.Name))
	}
	artist := strings.Join(names, ", ")
	if artist == "" {
		artist = "Unknown"
	}

	var label string
	if len(info.Labels) > 0 {
		label = info.Labels[0].Name
	}

	title := info.Title
	if title == "" {
		title = "Untitled"
	}

	r := Release{
		DiscogsID:   info.ID,
		Title:       title,
		Artist:      artist,
		Label:       label,
		Year:        info.Year,
		CoverArtURL: info.CoverImage,
		DiscogsURI:  fmt.Sprintf("https://www.discogs.com/release/%d", info.ID),
		PayloadHash: HashPayload(item.Raw),
	}

	if details != nil {
		for _, row := range details.Tracklist {
			if row.Type == "heading" || row.Type == "index" {
				continue
			}
			title := row.Title
			if title == "" {
				title = "Untitled"
			}
			r.Tracks = append(r.Tracks, TrackInfo{
				Position: row.Position,
				Title:    title,
				Duration: row.Duration,
			})
		}
	}

	return r
}

// HashPayload returns the hex SHA-256 of a raw item payload.
func HashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func cleanArtistName(name string) string {
	return artistSuffixRe.ReplaceAllString(name, "")
}
