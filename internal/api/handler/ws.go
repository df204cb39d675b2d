package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Events upgrades GET /ws/events to a websocket carrying the live event feed.
// Upgrade failures have already been answered by the upgrader.
func (h *Handler) Events(c *gin.Context) {
	if err := h.Hub.ServeWS(c.Writer, c.Request); err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
	}
}

// Health serves GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	if h.Ping == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		h.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
