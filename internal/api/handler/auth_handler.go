package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ntuclms/lms-client/internal/api/metrics"
	"github.com/ntuclms/lms-client/internal/api/middleware"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
)

type AuthHandler struct {
	lib    *store.Library
	secret string
	ttl    time.Duration
}

func NewAuthHandler(lib *store.Library, secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{lib: lib, secret: secret, ttl: ttl}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN"`
}

// Login authenticates a member and returns a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	m, err := h.lib.Authenticate(req.Username, req.Password)
	metrics.ObserveAuth("login", err)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid username or password")
		}
		return fail("Authentication failed", err)
	}
	return h.respond(c, m)
}

// Register creates a member account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	m, err := h.lib.Register(domain.Registration{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.ParseRole(req.Role),
	})
	metrics.ObserveAuth("register", err)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
		case errors.Is(err, store.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "Email already exists")
		}
		return fail("Registration failed", err)
	}
	return h.respond(c, m)
}

// Validate checks the bearer token and echoes it back with the member's
// details. An unusable token is a 400, not a 401.
func (h *AuthHandler) Validate(c echo.Context) error {
	raw, ok := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		metrics.ObserveAuth("validate", errInvalidToken)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid token")
	}
	claims, err := middleware.ParseToken(h.secret, raw)
	if err != nil {
		metrics.ObserveAuth("validate", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid token")
	}
	m, err := h.lib.MemberByUsername(claims.Subject)
	metrics.ObserveAuth("validate", err)
	if err != nil {
		return fail("Token validation failed", err)
	}
	return c.JSON(http.StatusOK, domain.AuthResult{
		Token:  raw,
		UserID: m.ID,
		Name:   m.Name,
		Role:   domain.ParseRole(claims.Role),
	})
}

var errInvalidToken = errors.New("invalid token")

func (h *AuthHandler) respond(c echo.Context, m *domain.Member) error {
	token, err := middleware.IssueToken(h.secret, m.Username, string(m.Role), h.ttl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.AuthResult{
		Token:  token,
		UserID: m.ID,
		Name:   m.Name,
		Role:   m.Role,
	})
}
