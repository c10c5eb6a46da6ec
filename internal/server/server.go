// Package server builds the HTTP API served by cmd/server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	sessionmiddleware "github.com/epiclo/go-session-middleware"
	"github.com/epiclo/go-session-middleware/config"
	"github.com/epiclo/go-session-middleware/core"
	sessiongin "github.com/epiclo/go-session-middleware/framework/gin"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage"
	"github.com/epiclo/go-session-middleware/storage/memory"
	"github.com/epiclo/go-session-middleware/storage/postgres"
	"github.com/epiclo/go-session-middleware/storage/redis"
)

// Deps are the collaborators of the router.
type Deps struct {
	Middleware  *sessionmiddleware.SessionMiddleware
	Grants      *grant.Service
	Users       storage.Store
	Logger      logrus.FieldLogger
	Metrics     http.Handler
	Development bool
}

type handler struct {
	Deps
}

// NewRouter registers the API routes on a new gin engine.
func NewRouter(deps Deps) *gin.Engine {
	if !deps.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &handler{Deps: deps}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := router.Group("/api", sessiongin.NewGinMiddleware(deps.Middleware))
	api.GET("/", h.hello)
	api.GET("/me", sessiongin.RequireSession(), h.me)

	// Resolving here would rotate tokens that logout is about to clear.
	auth := router.Group("/api/auth")
	auth.POST("/logout", h.logout)
	if deps.Development {
		auth.POST("/dev-login", h.devLogin)
	}

	return router
}

func (h *handler) hello(c *gin.Context) {
	c.String(http.StatusOK, "hello api!")
}

func (h *handler) me(c *gin.Context) {
	userID, _ := sessiongin.GetUserID(c, "")

	user, err := h.Users.FindUserByID(c.Request.Context(), userID)
	if errors.Is(err, core.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", userID).Error("failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error."})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *handler) logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(sessionmiddleware.RefreshTokenCookie); err == nil && refreshToken != "" {
		if err := h.Grants.RevokeToken(c.Request.Context(), refreshToken); err != nil {
			h.Logger.WithError(err).Warn("failed to revoke refresh token")
		}
	}

	h.Middleware.Cookies().ClearTokenCookies(c.Writer)
	c.Status(http.StatusNoContent)
}

type devLoginRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *handler) devLogin(c *gin.Context) {
	var req devLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.findOrCreateUser(ctx, req.Username)
	if err != nil {
		h.Logger.WithError(err).WithField("username", req.Username).Error("dev login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error."})
		return
	}

	tokens, err := h.Grants.IssueTokens(ctx, user.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", user.ID).Error("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error."})
		return
	}

	h.Middleware.Cookies().SetTokenCookies(c.Writer, tokens)
	c.JSON(http.StatusOK, user)
}

func (h *handler) findOrCreateUser(ctx context.Context, username string) (*core.User, error) {
	user, err := h.Users.FindUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return nil, err
	}

	user = &core.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return h.Users.FindUserByUsername(ctx, username)
		}
		return nil, err
	}
	return user, nil
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if userID, ok := sessiongin.GetUserID(c, ""); ok {
			entry = entry.WithField("user_id", userID)
		}
		entry.Info("request")
	}
}

// OpenStore builds the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageRedis:
		store, err := redis.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}

// NewLogger returns a logrus logger at the given level, formatting JSON
// outside development.
func NewLogger(level string, development bool) (*logrus.Logger, error) {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)

	if development {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger, nil
}
