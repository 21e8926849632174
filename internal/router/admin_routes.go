package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/handler"
	"github.com/iliyamo/bookletify-api/internal/middleware"
	"github.com/iliyamo/bookletify-api/internal/model"
)

// RegisterAdmin registers moderation endpoints under /admin.  All routes
// require a valid session and the admin role: a missing token is 401, a
// non-admin token is 403.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwt echo.MiddlewareFunc) {
	g := e.Group(
		"/admin",
		jwt,
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id/role", h.ChangeRole)
	g.DELETE("/users/:id", h.DeleteUser)
	g.GET("/reviews", h.ListReviews)
}
