package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/roomescape/internal/config"
	"github.com/iliyamo/roomescape/internal/handler"
	"github.com/iliyamo/roomescape/internal/middleware"
)

// Deps collects everything the routes are wired to.
type Deps struct {
	JWTSecret    string
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Admin        *handler.AdminReservationHandler
	Catalog      *handler.CatalogHandler
	DB           handler.Pinger
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
	Log          *zap.Logger
}

// New builds the Echo instance with shared middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d)
	RegisterMember(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the routes that need no authentication: health,
// signup, login and catalog browsing.  The time slot and theme lists go
// through the Redis response cache.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	e.POST("/v1/members", d.Auth.Signup)
	e.POST("/v1/auth/login", d.Auth.Login)

	pub := e.Group("/v1", middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	pub.GET("/times", d.Catalog.ListTimes)
	pub.GET("/themes", d.Catalog.ListThemes)
	// popular themes are memoised by the ranker; availability changes with
	// every booking and is never cached
	e.GET("/v1/themes/popular", d.Catalog.PopularThemes)
	e.GET("/v1/times/available", d.Catalog.Available)
}

// errorHandler renders errors as {"error": message} like the handlers do
// and logs the cause of every 5xx.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}
		if code >= 500 {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": msg})
	}
}
