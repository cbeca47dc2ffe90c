package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/config"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/utils"
)

const secret = "middleware-secret"

func serve(t *testing.T, token string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	var seen echo.Context
	h := func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	}
	e.GET("/probe", h, mw...)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, id, "tester", role, 5)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return at.Token
}

func TestJWTAuthStoresIdentity(t *testing.T) {
	rec, c := serve(t, token(t, 42, model.RoleMember), JWTAuth(secret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if id, ok := MemberID(c); !ok || id != 42 {
		t.Fatalf("member id = %d, %v", id, ok)
	}
	if Role(c) != model.RoleMember {
		t.Fatalf("role = %q", Role(c))
	}
	if identity(c) != "42" {
		t.Fatalf("identity = %q", identity(c))
	}
}

func TestJWTAuthRejects(t *testing.T) {
	for name, tok := range map[string]string{
		"missing":      "",
		"garbage":      "not-a-jwt",
		"wrong secret": func() string { at, _ := utils.NewAccessToken("other", 1, "x", model.RoleMember, 5); return at.Token }(),
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := serve(t, tok, JWTAuth(secret))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status %d", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role string
		mw   echo.MiddlewareFunc
		want int
	}{
		{model.RoleMember, RequireMember(), http.StatusOK},
		{model.RoleAdmin, RequireMember(), http.StatusOK},
		{model.RoleMember, RequireAdmin(), http.StatusForbidden},
		{model.RoleAdmin, RequireAdmin(), http.StatusOK},
	}
	for _, tc := range cases {
		rec, _ := serve(t, token(t, 7, tc.role), JWTAuth(secret), tc.mw)
		if rec.Code != tc.want {
			t.Errorf("%s: want %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
	// without JWTAuth nobody has a role
	if rec, _ := serve(t, "", RequireMember()); rec.Code != http.StatusForbidden {
		t.Fatalf("guest: status %d", rec.Code)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	_, c := serve(t, token(t, 9, model.RoleMember), JWTAuth(secret))
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "member_route"}
	if got := rateKey(cfg, c); got != "rl:member:9:route:GET /probe" {
		t.Fatalf("member_route key = %q", got)
	}
	cfg.KeyStrategy = "member"
	if got := rateKey(cfg, c); got != "rl:member:9" {
		t.Fatalf("member key = %q", got)
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	rl := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)
	cache := NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil)
	if rec, _ := serve(t, "", rl, cache); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCachePayload(t *testing.T) {
	hdr := http.Header{}
	hdr.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[{"id":1}]`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || string(body) != `[{"id":1}]` || got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:6]); ok {
		t.Fatal("truncated payload decoded")
	}
}
