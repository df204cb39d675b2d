// Package api wires the HTTP routes and middleware.
package api

import (
	"net/http"

	"nagarneuron/backend/internal/api/handler"
	"nagarneuron/backend/internal/api/middleware"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Handler        *handler.Handler
	Tokens         middleware.TokenParser
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	Log            *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.RequestLogger(cfg.Log))

	h := cfg.Handler
	r.GET("/healthz", h.Health)
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if h.Hub != nil {
		r.GET("/ws/events", h.Events)
	}

	api := r.Group("/api")
	if cfg.Tokens != nil {
		api.Use(middleware.OptionalAuth(cfg.Tokens))
	}
	{
		api.POST("/auth/login", h.Login)

		api.GET("/complaints", h.ListComplaints)
		api.POST("/complaints", h.CreateComplaint)
		api.GET("/complaints/nearby-unverified", h.NearbyUnverified)
		api.GET("/complaints/:id", h.GetComplaint)
		api.PUT("/complaints/:id/status", h.UpdateStatus)
		api.POST("/complaints/:id/verify", h.Verify)

		api.GET("/stats", h.Stats)
		api.GET("/hotspots", h.Hotspots)

		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/badges", h.Badges)
		api.GET("/challenges", h.Challenges)

		api.GET("/user/profile", h.GetProfile)
		api.PUT("/user/profile", h.UpdateProfile)
		api.GET("/users/:id/points", h.PointHistory)

		api.GET("/notifications", h.Notifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
	}
	return r
}
