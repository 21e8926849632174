package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/catalog"
)

// CatalogHandler exposes the Discogs search and album lookups.  Upstream
// failures are logged and reported with a generic message so Discogs error
// details never reach clients.
type CatalogHandler struct {
	Catalog Catalog
}

func NewCatalogHandler(cat Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: cat}
}

// Search handles GET /discogs?artist=.
func (h *CatalogHandler) Search(c echo.Context) error {
	artist := strings.TrimSpace(c.QueryParam("artist"))
	if artist == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing 'artist' query parameter"})
	}
	releases, err := h.Catalog.Search(c.Request().Context(), artist)
	if err != nil {
		c.Logger().Errorf("discogs search %q: %v", artist, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch data from Discogs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"artist": artist, "releases": releases})
}

// Album handles GET /discogs/album?master_id=.
func (h *CatalogHandler) Album(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("master_id"))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing 'master_id' query parameter"})
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "master_id must be a positive integer"})
	}
	album, err := h.Catalog.Album(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "album not found"})
		}
		c.Logger().Errorf("discogs master %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch data from Discogs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"album": album})
}
