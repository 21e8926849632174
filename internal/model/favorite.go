package model

import "time"

// Favorite is a user's bookmark of an album.  Title, Artist and CoverURL are
// copied from the catalog when the bookmark is made so that listings never
// need to query Discogs again.
type Favorite struct {
	ID        uint64    `json:"id"`
	AuthorID  uint64    `json:"authorId"`
	AlbumID   string    `json:"albumId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	CoverURL  string    `json:"coverUrl"`
	CreatedAt time.Time `json:"createdAt"`
}
