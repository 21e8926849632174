package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/middleware"
	"github.com/iliyamo/bookletify-api/internal/repository"
)

// FavoriteHandler serves the caller's album bookmarks.
type FavoriteHandler struct {
	Favorites FavoriteStore
}

func NewFavoriteHandler(f FavoriteStore) *FavoriteHandler {
	return &FavoriteHandler{Favorites: f}
}

type addFavoriteReq struct {
	AlbumID  string `json:"albumId"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	CoverURL string `json:"coverUrl"`
}

// Add handles POST /favorites.  A second bookmark of the same album is a
// 409 with a message the UI can show as "already favorited".
func (h *FavoriteHandler) Add(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req addFavoriteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.AlbumID = strings.TrimSpace(req.AlbumID)
	if req.AlbumID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "albumId is required"})
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	fav, err := h.Favorites.Add(ctx, id.UserID, req.AlbumID,
		strings.TrimSpace(req.Title), strings.TrimSpace(req.Artist), strings.TrimSpace(req.CoverURL))
	if err != nil {
		if errors.Is(err, repository.ErrFavoriteExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Album already in favorites"})
		}
		return internalError(c, "add favorite", err)
	}
	return c.JSON(http.StatusCreated, fav)
}

// Remove handles DELETE /favorites/:albumId.  Removing a bookmark that does
// not exist is a plain 404, not a server error.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	removed, err := h.Favorites.Remove(ctx, id.UserID, c.Param("albumId"))
	if err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Favorite not found"})
		}
		return internalError(c, "remove favorite", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Removed from favorites", "removed": removed})
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	list, err := h.Favorites.ListByAuthor(ctx, id.UserID)
	if err != nil {
		return internalError(c, "list favorites", err)
	}
	return c.JSON(http.StatusOK, list)
}
