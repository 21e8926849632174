package model

// AlbumSummary is the reduced shape returned by catalog searches.  MasterID
// is the Discogs release-group identifier used to de-duplicate results.
type AlbumSummary struct {
	MasterID   int      `json:"master_id"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	Country    string   `json:"country,omitempty"`
	Format     []string `json:"format,omitempty"`
	CoverImage string   `json:"cover_image,omitempty"`
	Genre      []string `json:"genre,omitempty"`
}

// Track is one entry of an album's track list.
type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// AlbumDetail is the richer shape returned for a single release group.
type AlbumDetail struct {
	MasterID   int      `json:"master_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	Artists    []string `json:"artists"`
	Genres     []string `json:"genres,omitempty"`
	Styles     []string `json:"styles,omitempty"`
	CoverImage string   `json:"cover_image,omitempty"`
	Tracklist  []Track  `json:"tracklist"`
}
