package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/middleware"
	"github.com/iliyamo/bookletify-api/internal/model"
	"github.com/iliyamo/bookletify-api/internal/repository"
)

// ReviewHandler serves album reviews and ratings.
type ReviewHandler struct {
	Reviews ReviewStore
}

func NewReviewHandler(r ReviewStore) *ReviewHandler {
	return &ReviewHandler{Reviews: r}
}

type createReviewReq struct {
	AlbumID string `json:"albumId"`
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

// Create handles POST /reviews.  The rating bound is checked here, before
// anything is persisted.
func (h *ReviewHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.AlbumID = strings.TrimSpace(req.AlbumID)
	req.Comment = strings.TrimSpace(req.Comment)
	if req.AlbumID == "" || req.Comment == "" || req.Rating == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}
	if !model.ValidRating(*req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	rev, err := h.Reviews.Create(ctx, req.AlbumID, id.UserID, req.Comment, *req.Rating)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRating) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
		}
		return internalError(c, "create review", err)
	}
	return c.JSON(http.StatusCreated, rev)
}

// ListByAlbum handles GET /reviews/:albumId.
func (h *ReviewHandler) ListByAlbum(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	list, err := h.Reviews.ListByAlbum(ctx, c.Param("albumId"))
	if err != nil {
		return internalError(c, "list album reviews", err)
	}
	return c.JSON(http.StatusOK, list)
}

// ListMine handles GET /reviews/user.
func (h *ReviewHandler) ListMine(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	list, err := h.Reviews.ListByAuthor(ctx, id.UserID)
	if err != nil {
		return internalError(c, "list own reviews", err)
	}
	return c.JSON(http.StatusOK, list)
}

// Delete handles DELETE /reviews/:id.  Deleting someone else's review is
// reported exactly like deleting one that does not exist.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if _, err := h.Reviews.DeleteByIDAndAuthor(ctx, reviewID, id.UserID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Review not found"})
		}
		return internalError(c, "delete review", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted"})
}

// AverageRating handles GET /reviews/:id/rating where :id is the album id.
// The average is rendered with two decimals, ties rounded up (1.125 is
// "1.13"); an album without reviews is a 404 rather than an average of zero.
func (h *ReviewHandler) AverageRating(c echo.Context) error {
	albumID := c.Param("id")
	ctx, cancel := dbContext(c)
	defer cancel()
	avg, err := h.Reviews.AverageRating(ctx, albumID)
	if err != nil {
		return internalError(c, "average rating", err)
	}
	if avg == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No ratings found for this album"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"albumId":       albumID,
		"averageRating": fmt.Sprintf("%.2f", math.Round(*avg*100)/100),
	})
}
