package model

import "time"

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r lies within [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Review is one user's opinion on one album.  AlbumID is the opaque catalog
// identifier; the service keeps no album record of its own.
//
// Username is filled in by listing queries that join the author's account.
// Email is only populated for moderation listings.
type Review struct {
	ID        uint64    `json:"id"`
	AlbumID   string    `json:"albumId"`
	AuthorID  uint64    `json:"authorId"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
