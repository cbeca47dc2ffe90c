package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All routes
// require a valid JWT; admins may use them as well.  Booking writes are
// rate limited per member.
func RegisterMember(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireMember(),
	)
	g.GET("/members/me", d.Auth.Me)

	limited := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	g.POST("/reservations", d.Reservations.Create, limited)
	g.POST("/reservations/waiting", d.Reservations.CreateWaiting, limited)
	g.GET("/reservations/mine", d.Reservations.Mine)
	g.DELETE("/reservations/:id", d.Reservations.Cancel)
}
