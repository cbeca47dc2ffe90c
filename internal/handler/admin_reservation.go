package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/booking"
	"github.com/iliyamo/roomescape/internal/model"
)

// AdminReservationHandler serves reservation management for admins.
type AdminReservationHandler struct {
	Booking *booking.Service
}

func NewAdminReservationHandler(b *booking.Service) *AdminReservationHandler {
	if b == nil {
		panic("nil booking service passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Booking: b}
}

type adminReservationReq struct {
	reservationReq
	MemberID uint64 `json:"memberId" validate:"required"`
}

// Create handles POST /v1/admin/reservations: book on behalf of a member.
func (h *AdminReservationHandler) Create(c echo.Context) error {
	var body adminReservationReq
	if msg := bindValid(c, &body); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	req, err := body.toRequest(body.MemberID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	res, err := h.Booking.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservation(res))
}

// List handles GET /v1/admin/reservations?memberId=&themeId=&dateFrom=&dateTo=.
// Omitted parameters do not filter; the date bounds are inclusive.
func (h *AdminReservationHandler) List(c echo.Context) error {
	var (
		f   model.ReservationFilter
		err error
	)
	if f.MemberID, err = queryID(c, "memberId"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.ThemeID, err = queryID(c, "themeId"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.DateFrom, err = queryDate(c, "dateFrom"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.DateTo, err = queryDate(c, "dateTo"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rs, err := h.Booking.ListReservations(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservations(rs))
}

// Waiting handles GET /v1/admin/reservations/waiting: every waitlist entry
// from today on.
func (h *AdminReservationHandler) Waiting(c echo.Context) error {
	rs, err := h.Booking.ListWaiting(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservations(rs))
}

// Cancel handles DELETE /v1/admin/reservations/:id.  Cancelling an unknown
// id succeeds, and nobody on the waitlist is promoted.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Booking.Cancel(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Promote handles POST /v1/admin/reservations/:id/promote.
func (h *AdminReservationHandler) Promote(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Booking.Promote(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservation(res))
}
