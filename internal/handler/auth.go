package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape/internal/config"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/repository"
	"github.com/iliyamo/roomescape/internal/utils"
)

// MemberAccounts is the member storage the auth endpoints need.
type MemberAccounts interface {
	Create(ctx context.Context, m model.Member) (model.Member, error)
	FindByEmail(ctx context.Context, email string) (model.Member, error)
	FindByID(ctx context.Context, id uint64) (model.Member, error)
}

// AuthHandler bundles dependencies for signup, login and profile endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Members MemberAccounts
}

func NewAuthHandler(cfg config.Config, m MemberAccounts) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Members: m}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Member memberResp `json:"member"`
	Access tokenPart  `json:"access"`
}

// Signup handles POST /v1/members.  New accounts always get the MEMBER role.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Members.Create(ctx, model.Member{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleMember,
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, memberResp{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role})
}

// Login handles POST /v1/auth/login and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if msg := bindValid(c, &req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Members.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !utils.VerifyPassword(m.PasswordHash, req.Password)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return writeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, m.ID, m.Name, m.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Member: memberResp{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me handles GET /v1/members/me.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := currentMember(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	m, err := h.Members.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 유저입니다."})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, memberResp{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role})
}
