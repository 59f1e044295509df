// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/media-vault/internal/config"
	"github.com/iliyamo/media-vault/internal/handler"
	"github.com/iliyamo/media-vault/internal/middleware"
	"github.com/iliyamo/media-vault/internal/repository"
)

// Register sets up all routes. Signup, signin and token refresh are open;
// everything else sits behind the JWT gate. The Redis rate limiter wraps
// the whole API and degrades to a no-op when rdb is nil.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, a *handler.AuthHandler, f *handler.FileHandler, blocklist repository.TokenBlocklist) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health)

	e.POST("/signup", a.Signup)
	e.POST("/signin", a.Signin)
	// Refresh carries the refresh token as a bearer header and verifies it
	// itself, so it stays outside the access-token gate.
	e.POST("/new_token", a.Refresh)

	auth := e.Group("", middleware.JWTAuth(cfg.AccessSecret, blocklist))
	auth.GET("/info", a.Info)
	auth.GET("/logout", a.Logout)

	files := auth.Group("/file")
	files.GET("/list", f.List)
	files.POST("/upload", f.Upload)
	files.GET("/download/:id", f.Download)
	files.DELETE("/delete/:id", f.Delete)
	files.PUT("/update/:id", f.Update)
	files.GET("/:id", f.Get)
}
