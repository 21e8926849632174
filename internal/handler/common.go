package handler // handler defines http handlers

import (
	"context"  // store interfaces take a context
	"net/http" // status codes
	"time"     // DB call timeout

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/bookletify-api/internal/model"      // entities returned by the stores
	"github.com/iliyamo/bookletify-api/internal/repository" // DeletedUser
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

// UserStore is the credential store used by the auth endpoints.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// ReviewStore is the review persistence used by the review endpoints.
type ReviewStore interface {
	Create(ctx context.Context, albumID string, authorID uint64, comment string, rating int) (model.Review, error)
	ListByAlbum(ctx context.Context, albumID string) ([]model.Review, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Review, error)
	DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) (model.Review, error)
	AverageRating(ctx context.Context, albumID string) (*float64, error)
}

// FavoriteStore is the bookmark persistence used by the favorite endpoints.
type FavoriteStore interface {
	Add(ctx context.Context, authorID uint64, albumID, title, artist, coverURL string) (model.Favorite, error)
	Remove(ctx context.Context, authorID uint64, albumID string) (model.Favorite, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Favorite, error)
}

// AdminStore holds the moderation operations.
type AdminStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ChangeRole(ctx context.Context, id uint64, role string) (model.User, error)
	DeleteUserCascade(ctx context.Context, id uint64) (repository.DeletedUser, error)
	ListAllReviews(ctx context.Context) ([]model.Review, error)
}

// Catalog is the album lookup service.
type Catalog interface {
	Search(ctx context.Context, artist string) ([]model.AlbumSummary, error)
	Album(ctx context.Context, masterID int) (model.AlbumDetail, error)
}

// dbContext derives the per-request storage context.
func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// unauthorized answers a request that reached a protected handler without
// an identity.  Such routes are always mounted behind JWTAuth, so this
// only fires on a wiring mistake.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// internalError logs err with the request context and sends a generic 500.
func internalError(c echo.Context, what string, err error) error {
	c.Logger().Errorf("%s: %v", what, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
