package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers other
// middleware and the handlers read them with.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxMemberID   = "member_id"
	ctxMemberName = "member_name"
	ctxRole       = "role"
)

// MemberID returns the authenticated member's id.
func MemberID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxMemberID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated member's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// identity renders the caller for rate-limit keys and logs: the member id
// when authenticated, "guest" otherwise.
func identity(c echo.Context) string {
	if id, ok := MemberID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
