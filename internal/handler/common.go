package handler // handler defines http handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/booking"
	"github.com/iliyamo/roomescape/internal/middleware"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/repository"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator installed on the Echo instance.  Error
// messages name fields by their json tag, and the "hhmm" tag checks an
// HH:MM start time.
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := model.ParseStartAt(fl.Field().String())
		return err == nil
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }

// bindValid binds the body into req and validates it.  It returns the
// message for a 400 response, or "" when req is usable.
func bindValid(c echo.Context, req interface{}) string {
	if err := c.Bind(req); err != nil {
		return "invalid body"
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		return err.Error()
	}
	return ""
}

// currentMember returns the id JWTAuth stored for the caller.
func currentMember(c echo.Context) (uint64, error) {
	id, ok := middleware.MemberID(c)
	if !ok {
		return 0, errors.New("invalid member_id in context")
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive numeric query parameter.
func queryID(c echo.Context, name string) (*uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &d, nil
}

// statusFor maps booking failures to HTTP statuses.
func statusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindInvalidTiming, booking.KindSlotNotYetReserved:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

// writeError renders err as {"error": message}.  Unexpected errors become
// a 500 whose cause reaches the request log.
func writeError(c echo.Context, err error) error {
	var be *booking.Error
	switch {
	case errors.As(err, &be):
		return c.JSON(statusFor(be.Kind), echo.Map{"error": be.Message})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// ----- response DTOs -----

type timeResp struct {
	ID      uint64 `json:"id"`
	StartAt string `json:"startAt"`
}

type themeResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

type memberResp struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type reservationResp struct {
	ID     uint64     `json:"id"`
	Date   string     `json:"date"`
	Time   timeResp   `json:"time"`
	Theme  themeResp  `json:"theme"`
	Member memberResp `json:"member"`
	Status string     `json:"status"`
}

func toTime(t model.TimeSlot) timeResp { return timeResp{ID: t.ID, StartAt: t.StartAt} }

func toTheme(t model.Theme) themeResp {
	return themeResp{ID: t.ID, Name: t.Name, Description: t.Description, Thumbnail: t.Thumbnail}
}

func toReservation(r model.Reservation) reservationResp {
	return reservationResp{
		ID:     r.ID,
		Date:   r.Date.Format(model.DateLayout),
		Time:   toTime(r.Time),
		Theme:  toTheme(r.Theme),
		Member: memberResp{ID: r.Member.ID, Name: r.Member.Name},
		Status: string(r.Status()),
	}
}

func toReservations(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservation(r))
	}
	return out
}
