package discogs

import "encoding/json"

// Pagination is the pagination block returned by Discogs list endpoints.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// CollectionPage is one page of a user's collection folder.
type CollectionPage struct {
	Pagination Pagination       `json:"pagination"`
	Releases   []CollectionItem `json:"releases"`
}

// CollectionItem is one release instance in a collection folder. Raw keeps
// the exact JSON bytes of the item as served, which the reconciler hashes to
// detect remote-side changes without field-by-field comparison.
type CollectionItem struct {
	InstanceID       int64            `json:"instance_id"`
	DateAdded        string           `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`

	Raw json.RawMessage `json:"-"`
}

func (i *CollectionItem) UnmarshalJSON(b []byte) error {
	type alias CollectionItem
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*i = CollectionItem(a)
	i.Raw = append([]byte(nil), b...)
	return nil
}

// BasicInformation is the summary block Discogs embeds in collection items.
type BasicInformation struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	CoverImage string   `json:"cover_image"`
	Artists    []Artist `json:"artists"`
	Labels     []Label  `json:"labels"`
}

type Artist struct {
	Name string `json:"name"`
}

type Label struct {
	Name string `json:"name"`
}

// ReleaseDetails is the full release resource, fetched separately because
// collection pages do not include tracklists.
type ReleaseDetails struct {
	ID        int64            `json:"id"`
	Tracklist []TracklistEntry `json:"tracklist"`
}

// TracklistEntry is one row of a release tracklist. Type distinguishes real
// tracks from "heading" and "index" rows, which are skipped during parsing.
type TracklistEntry struct {
	Position string `json:"position"`
	Type     string `json:"type_"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Identity is the authenticated user's identity resource.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
