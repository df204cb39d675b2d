// Package handler is the gin HTTP surface of the service.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"nagarneuron/backend/internal/api/middleware"
	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/auth"
	"nagarneuron/backend/internal/complaint"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/geo"
	"nagarneuron/backend/internal/lifecycle"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/verification"

	"github.com/gin-gonic/gin"
)

// Handler holds the services the routes call into.
type Handler struct {
	Complaints   *complaint.Service
	Lifecycle    *lifecycle.Engine
	Votes        *verification.Engine
	Nearby       *geo.Finder
	Gamification *gamification.Engine
	Auth         *auth.Service
	Store        storage.Storage
	Hub          *events.Hub
	// Ping checks the backing stores for /healthz.
	Ping func(ctx context.Context) error

	log *logger.Logger
}

func NewHandler(h Handler, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h.log = log.With("component", "http")
	return &h
}

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps err to its status code. Internal errors are logged and
// never shown to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var e *apperr.Error
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case apperr.KindValidation:
		if errors.As(err, &e) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: e.Message, Details: e.Details})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string, details interface{}) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Details: details})
}

// resolveUser prefers the authenticated user, then the explicit id.
func resolveUser(c *gin.Context, explicit *uint) (uint, bool) {
	if uid, ok := middleware.UserID(c); ok {
		return uid, true
	}
	if explicit != nil && *explicit > 0 {
		return *explicit, true
	}
	return 0, false
}

// queryUser reads ?userId= or falls back to the token.
func queryUser(c *gin.Context) (uint, bool, error) {
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return 0, false, apperr.Validation("invalid userId", map[string]interface{}{"userId": raw})
		}
		uid := uint(id)
		u, ok := resolveUser(c, &uid)
		return u, ok, nil
	}
	u, ok := resolveUser(c, nil)
	return u, ok, nil
}

func pathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid "+name, map[string]interface{}{name: raw})
	}
	return uint(id), nil
}

// queryInt parses an optional integer query parameter, def when absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid "+name, map[string]interface{}{name: raw})
	}
	return n, nil
}
