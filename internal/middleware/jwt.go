package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // bounds the user lookup
	"errors"   // matches repository sentinel errors
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // lookup timeout

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/bookletify-api/internal/model"      // user record loaded per request
	"github.com/iliyamo/bookletify-api/internal/repository" // ErrUserNotFound
	"github.com/iliyamo/bookletify-api/internal/utils"      // session token verification
)

// UserLookup loads the account a token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session token,
// loads the referenced user and attaches its identity to the request.
//
//	no bearer header        -> 401
//	bad signature / expired -> 401
//	user no longer exists   -> 404
//	otherwise               -> next handler, IdentityFrom(c) is set
//
// The identity carries the role stored on the user record, so a role change
// takes effect on the next request rather than when the token expires.
func JWTAuth(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access denied, no token provided"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access denied, no token provided"})
			}

			claims, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
				}
				c.Logger().Errorf("auth: load user %d: %v", claims.UserID, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}

			setIdentity(c, u)
			return next(c)
		}
	}
}
