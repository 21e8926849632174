package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/handler"
)

// RegisterReviews registers review endpoints.  Reading reviews and ratings
// is public; writing, deleting and listing one's own reviews require a
// session.  The static /reviews/user route takes precedence over
// /reviews/:albumId.
func RegisterReviews(e *echo.Echo, h *handler.ReviewHandler, jwt echo.MiddlewareFunc) {
	g := e.Group("/reviews")
	g.POST("", h.Create, jwt)
	g.GET("/user", h.ListMine, jwt)
	g.GET("/:albumId", h.ListByAlbum)
	g.GET("/:id/rating", h.AverageRating)
	g.DELETE("/:id", h.Delete, jwt)
}

// RegisterFavorites registers the caller's bookmark endpoints.  All of them
// require a session.
func RegisterFavorites(e *echo.Echo, h *handler.FavoriteHandler, jwt echo.MiddlewareFunc) {
	g := e.Group("/favorites", jwt)
	g.POST("", h.Add)
	g.GET("", h.List)
	g.DELETE("/:albumId", h.Remove)
}
