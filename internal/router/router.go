package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/bookletify-api/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/bookletify-api/internal/middleware" // JWT authentication and role enforcement
)

// Deps carries what the route table needs.  Cache may be nil, in which
// case catalog routes are served uncached.
type Deps struct {
	JWTSecret string
	Users     middleware.UserLookup
	DB        handler.Pinger
	Cache     echo.MiddlewareFunc

	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Reviews   *handler.ReviewHandler
	Favorites *handler.FavoriteHandler
	Admin     *handler.AdminHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.JWTSecret, d.Users)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, jwt)
	RegisterCatalog(e, d.Catalog, d.Cache)
	RegisterReviews(e, d.Reviews, jwt)
	RegisterFavorites(e, d.Favorites, jwt)
	RegisterAdmin(e, d.Admin, jwt)
}

// RegisterRoutes registers routes that do not belong to any resource.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	// Load balancers and monitoring poll /healthz.
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers account endpoints.  Register and login are open;
// profile needs a session token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwt echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/profile", a.Profile, jwt)
}

// RegisterCatalog registers the Discogs pass-through endpoints.  They are
// public and the only routes the response cache applies to.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache)
	}
	g := e.Group("/discogs", mws...)
	g.GET("", h.Search)
	g.GET("/album", h.Album)
}
