// Package handler exposes the HTTP handlers of the API. Handlers bind
// request DTOs, call the injected stores, and map errors to HTTP status
// codes at this boundary.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-vault/internal/config"
	"github.com/iliyamo/media-vault/internal/middleware"
	"github.com/iliyamo/media-vault/internal/repository"
	"github.com/iliyamo/media-vault/internal/utils"
)

const storeTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the signup/signin/refresh/logout
// endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens repository.TokenBlocklist
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, t repository.TokenBlocklist) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type credentialsReq struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (h *AuthHandler) issuePair(userID string) (utils.TokenPair, error) {
	return utils.IssueTokenPair(
		h.Cfg.AccessSecret, h.Cfg.RefreshSecret, userID,
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute,
		time.Duration(h.Cfg.RefreshTTLDays)*24*time.Hour,
	)
}

// Signup creates a user and returns their first token pair.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "id and password are required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "hash password failed"})
	}
	pair, err := h.issuePair(req.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue tokens failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Users.Create(ctx, req.ID, hash, pair.RefreshToken); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Signin verifies credentials, rotates the stored refresh token and
// returns a fresh pair.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.ID = strings.TrimSpace(req.ID)

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	pair, err := h.issuePair(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue tokens failed"})
	}
	if err := h.Users.UpdateRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "save refresh failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a bearer refresh token for a new token pair. The
// token's signature and expiry are checked against the refresh secret and
// the blocklist; the stored per-user token is deliberately not consulted
// and not rotated here.
func (h *AuthHandler) Refresh(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "no refresh token provided in authorization headers"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	blocked, err := h.Tokens.IsRefreshBlocked(ctx, raw)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "blocklist lookup failed"})
	}
	if blocked {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "refresh token is blocked"})
	}

	userID, err := utils.VerifyToken(h.Cfg.RefreshSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
	}

	pair, err := h.issuePair(userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes the current session: the access token in use and the
// user's stored refresh token both go on the blocklist.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	raw, _ := c.Get(middleware.CtxAccessToken).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "load user failed"})
	}
	if err := h.Tokens.Block(ctx, raw, u.RefreshToken); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "successfully logged out"})
}

// Info returns the authenticated user's id.
func (h *AuthHandler) Info(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	return c.JSON(http.StatusOK, echo.Map{"id": userID})
}
