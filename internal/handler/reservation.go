package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/booking"
	"github.com/iliyamo/roomescape/internal/model"
)

// ReservationHandler serves the member-facing booking endpoints.
type ReservationHandler struct {
	Booking *booking.Service
}

func NewReservationHandler(b *booking.Service) *ReservationHandler {
	if b == nil {
		panic("nil booking service passed to NewReservationHandler")
	}
	return &ReservationHandler{Booking: b}
}

type reservationReq struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeID  uint64 `json:"timeId" validate:"required"`
	ThemeID uint64 `json:"themeId" validate:"required"`
}

func (r reservationReq) toRequest(memberID uint64) (booking.Request, error) {
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return booking.Request{}, err
	}
	return booking.Request{Date: date, TimeID: r.TimeID, ThemeID: r.ThemeID, MemberID: memberID}, nil
}

// myReservationResp is one row of GET /v1/reservations/mine.
type myReservationResp struct {
	ReservationID uint64 `json:"reservationId"`
	Theme         string `json:"theme"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	Rank          int    `json:"rank,omitempty"`
}

// Create handles POST /v1/reservations for the signed-in member.
func (h *ReservationHandler) Create(c echo.Context) error {
	return h.create(c, h.Booking.Create)
}

// CreateWaiting handles POST /v1/reservations/waiting.
func (h *ReservationHandler) CreateWaiting(c echo.Context) error {
	return h.create(c, h.Booking.CreateWaiting)
}

func (h *ReservationHandler) create(c echo.Context, op func(context.Context, booking.Request) (model.Reservation, error)) error {
	memberID, err := currentMember(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body reservationReq
	if msg := bindValid(c, &body); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	req, err := body.toRequest(memberID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	res, err := op(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservation(res))
}

// Mine handles GET /v1/reservations/mine.
func (h *ReservationHandler) Mine(c echo.Context) error {
	memberID, err := currentMember(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.Booking.ListForMember(c.Request().Context(), memberID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]myReservationResp, 0, len(rows))
	for _, row := range rows {
		r := row.Reservation
		out = append(out, myReservationResp{
			ReservationID: r.ID,
			Theme:         r.Theme.Name,
			Date:          r.Date.Format(model.DateLayout),
			Time:          r.Time.StartAt,
			Status:        row.Label(),
			Rank:          row.Rank,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles DELETE /v1/reservations/:id.  Members may only cancel
// their own reservations and waitlist entries.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	memberID, err := currentMember(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Booking.CancelOwn(c.Request().Context(), id, memberID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
