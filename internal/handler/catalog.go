package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/roomescape/internal/booking"
	"github.com/iliyamo/roomescape/internal/clock"
	"github.com/iliyamo/roomescape/internal/middleware"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/ranking"
)

// CatalogHandler serves time slots and themes: public browsing,
// availability, popularity and the admin create/delete endpoints.
type CatalogHandler struct {
	Booking      *booking.Service
	Popular      ranking.Popular
	Clock        clock.Clock
	PeriodDays   int
	DefaultCount int

	// Cache and CachePrefix let catalog writes drop cached catalog reads.
	Cache       *redis.Client
	CachePrefix string
	Log         *zap.Logger
}

type availabilityResp struct {
	TimeID        uint64 `json:"timeId"`
	StartAt       string `json:"startAt"`
	AlreadyBooked bool   `json:"alreadyBooked"`
}

type timeReq struct {
	StartAt string `json:"startAt" validate:"required,hhmm"`
}

type themeReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Thumbnail   string `json:"thumbnail" validate:"omitempty,url,max=500"`
}

// ListTimes handles GET /v1/times.
func (h *CatalogHandler) ListTimes(c echo.Context) error {
	ts, err := h.Booking.ListTimeSlots(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]timeResp, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTime(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Available handles GET /v1/times/available?date=YYYY-MM-DD&themeId=N.
func (h *CatalogHandler) Available(c echo.Context) error {
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	themeID, err := queryID(c, "themeId")
	if err != nil || themeID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid themeId"})
	}
	slots, err := h.Booking.Availability(c.Request().Context(), date, *themeID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]availabilityResp, 0, len(slots))
	for _, s := range slots {
		out = append(out, availabilityResp{TimeID: s.Time.ID, StartAt: s.Time.StartAt, AlreadyBooked: s.AlreadyBooked})
	}
	return c.JSON(http.StatusOK, out)
}

// ListThemes handles GET /v1/themes.
func (h *CatalogHandler) ListThemes(c echo.Context) error {
	ths, err := h.Booking.ListThemes(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]themeResp, 0, len(ths))
	for _, th := range ths {
		out = append(out, toTheme(th))
	}
	return c.JSON(http.StatusOK, out)
}

// PopularThemes handles GET /v1/themes/popular?count=N[&from=&to=].
// Without from/to the period is the configured number of days ending
// yesterday.  Results come from the ranker's Redis memo and are not purged
// by reservation writes, so a period reaching today or later can lag new
// bookings by up to CACHE_POPULAR_TTL.
func (h *CatalogHandler) PopularThemes(c echo.Context) error {
	count := h.DefaultCount
	if raw := c.QueryParam("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid count"})
		}
		count = n
	}
	period := model.TrailingPeriod(h.Clock.Now(), h.PeriodDays)
	from, err := queryDate(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if from != nil {
		period.From = *from
	}
	if to != nil {
		period.To = *to
	}
	if period.To.Before(period.From) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from is after to"})
	}
	ths, err := h.Popular.PopularThemes(c.Request().Context(), period, count)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]themeResp, 0, len(ths))
	for _, th := range ths {
		out = append(out, toTheme(th))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateTime handles POST /v1/admin/times.
func (h *CatalogHandler) CreateTime(c echo.Context) error {
	var req timeReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ts, err := h.Booking.CreateTimeSlot(c.Request().Context(), req.StartAt)
	if err != nil {
		return writeError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, toTime(ts))
}

// DeleteTime handles DELETE /v1/admin/times/:id.
func (h *CatalogHandler) DeleteTime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time id"})
	}
	if err := h.Booking.DeleteTimeSlot(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

// CreateTheme handles POST /v1/admin/themes.
func (h *CatalogHandler) CreateTheme(c echo.Context) error {
	var req themeReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	th, err := h.Booking.CreateTheme(c.Request().Context(), model.Theme{
		Name: req.Name, Description: req.Description, Thumbnail: req.Thumbnail,
	})
	if err != nil {
		return writeError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, toTheme(th))
}

// DeleteTheme handles DELETE /v1/admin/themes/:id.
func (h *CatalogHandler) DeleteTheme(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theme id"})
	}
	if err := h.Booking.DeleteTheme(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) purge(c echo.Context) {
	if err := middleware.PurgeCache(c.Request().Context(), h.Cache, h.CachePrefix); err != nil && h.Log != nil {
		h.Log.Warn("catalog cache purge failed", zap.Error(err))
	}
}
