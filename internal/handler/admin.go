package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/middleware"
	"github.com/iliyamo/bookletify-api/internal/queue"
	"github.com/iliyamo/bookletify-api/internal/repository"
	"github.com/iliyamo/bookletify-api/internal/service"
)

// auditTimeout bounds publishing one audit event.
const auditTimeout = 3 * time.Second

// AdminHandler serves the /admin routes.  Every handler here sits behind
// JWTAuth and RequireRole(admin).
type AdminHandler struct {
	Admin AdminStore
	Audit service.AuditPublisher
}

func NewAdminHandler(a AdminStore, audit service.AuditPublisher) *AdminHandler {
	if audit == nil {
		audit = service.LogPublisher{}
	}
	return &AdminHandler{Admin: a, Audit: audit}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	users, err := h.Admin.ListUsers(ctx)
	if err != nil {
		return internalError(c, "list users", err)
	}
	return c.JSON(http.StatusOK, users)
}

type changeRoleReq struct {
	Role string `json:"role"`
}

// ChangeRole handles PUT /admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	actor, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req changeRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	ctx, cancel := dbContext(c)
	defer cancel()
	u, err := h.Admin.ChangeRole(ctx, userID, req.Role)
	switch {
	case errors.Is(err, repository.ErrInvalidRole):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be 'user' or 'admin'"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
	case err != nil:
		return internalError(c, "change role", err)
	}

	h.publish(c, queue.AdminAuditEvent{
		Action:       queue.ActionRoleChanged,
		ActorID:      actor.UserID,
		TargetUserID: u.ID,
		Role:         u.Role,
	})
	return c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /admin/users/:id.  The user, their reviews and
// their favorites go together or not at all.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	res, err := h.Admin.DeleteUserCascade(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return internalError(c, "delete user", err)
	}

	h.publish(c, queue.AdminAuditEvent{
		Action:           queue.ActionUserDeleted,
		ActorID:          actor.UserID,
		TargetUserID:     res.UserID,
		ReviewsDeleted:   res.ReviewsDeleted,
		FavoritesDeleted: res.FavoritesDeleted,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "User and all related data deleted",
		"userId":           res.UserID,
		"reviewsDeleted":   res.ReviewsDeleted,
		"favoritesDeleted": res.FavoritesDeleted,
	})
}

// ListReviews handles GET /admin/reviews.
func (h *AdminHandler) ListReviews(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	list, err := h.Admin.ListAllReviews(ctx)
	if err != nil {
		return internalError(c, "list all reviews", err)
	}
	return c.JSON(http.StatusOK, list)
}

// publish sends an audit event without failing the request.  The change it
// describes is already committed.
func (h *AdminHandler) publish(c echo.Context, ev queue.AdminAuditEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := h.Audit.PublishAdminAudit(ctx, ev); err != nil {
		c.Logger().Warnf("audit %s for user %d not published: %v", ev.Action, ev.TargetUserID, err)
	}
}
