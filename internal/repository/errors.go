// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRole is returned for roles outside {user, admin}.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidRating is returned for ratings outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrReviewNotFound covers both a missing review and a review owned by
	// someone else. Handlers must not tell the two apart.
	ErrReviewNotFound = errors.New("review not found")

	// ErrFavoriteExists is returned when the album is already bookmarked.
	ErrFavoriteExists = errors.New("album already in favorites")

	// ErrFavoriteNotFound is returned when removing a bookmark that does
	// not exist.
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
