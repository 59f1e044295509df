// Package middleware provides shared request processing for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-vault/internal/repository"
	"github.com/iliyamo/media-vault/internal/utils"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	CtxUserID      = "user_id"      // authenticated user id (string)
	CtxAccessToken = "access_token" // raw bearer token in use (string)
)

// JWTAuth returns an Echo middleware that gates protected routes. The
// request passes only when it carries a well-formed bearer token that is
// not on the blocklist and verifies against the access secret. On success
// the user id and the raw token are stored in the context; the raw token
// is what logout later inserts into the blocklist.
func JWTAuth(secret string, blocklist repository.TokenBlocklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "no token provided"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			blocked, err := blocklist.IsBlocked(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "blocklist lookup failed"})
			}
			if blocked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "token is blocked"})
			}

			userID, err := utils.VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid token"})
			}

			c.Set(CtxUserID, userID)
			c.Set(CtxAccessToken, raw)
			return next(c)
		}
	}
}
