package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireAdmin(),
	)

	// ---- Reservations ----
	g.POST("/reservations", d.Admin.Create)
	g.GET("/reservations", d.Admin.List)
	g.GET("/reservations/waiting", d.Admin.Waiting)
	g.DELETE("/reservations/:id", d.Admin.Cancel)
	g.POST("/reservations/:id/promote", d.Admin.Promote)

	// ---- Catalog ----
	g.POST("/times", d.Catalog.CreateTime)
	g.DELETE("/times/:id", d.Catalog.DeleteTime)
	g.POST("/themes", d.Catalog.CreateTheme)
	g.DELETE("/themes/:id", d.Catalog.DeleteTheme)
}
