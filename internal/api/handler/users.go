package handler

import (
	"net/http"
	"strings"

	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

// Login serves POST /api/auth/login. Unknown phones are registered.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	user, token, err := h.Auth.Login(c.Request.Context(), req.Phone, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Success: true, User: user, Token: token})
}

func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok, err := queryUser(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		badRequest(c, "userId is required", nil)
		return
	}
	user, err := h.Gamification.Profile(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type profileRequest struct {
	UserID   *uint   `json:"userId"`
	Name     *string `json:"name"`
	Language *string `json:"language"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	uid, ok := resolveUser(c, req.UserID)
	if !ok {
		badRequest(c, "userId is required", nil)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) > 100 {
			badRequest(c, "name is too long", map[string]interface{}{"name": "at most 100 characters"})
			return
		}
		updates["name"] = name
	}
	if req.Language != nil {
		if !models.ValidLanguage(*req.Language) {
			badRequest(c, "unsupported language", map[string]interface{}{"allowed": models.Languages})
			return
		}
		updates["language"] = *req.Language
	}
	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.Store.UpdateUserFields(ctx, uid, updates); err != nil {
			h.respondError(c, err)
			return
		}
	}
	user, err := h.Gamification.Profile(ctx, uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PointHistory serves GET /api/users/:id/points, newest first.
func (h *Handler) PointHistory(c *gin.Context) {
	uid, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.Gamification.PointHistory(c.Request.Context(), uid, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit, err := queryInt(c, "limit", config.DefaultLeaderboardLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.Gamification.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Badges(c *gin.Context) {
	out, err := h.Gamification.Badges(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Challenges(c *gin.Context) {
	uid, ok, err := queryUser(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		badRequest(c, "userId is required", nil)
		return
	}
	out, err := h.Gamification.Challenges(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Notifications(c *gin.Context) {
	uid, ok, err := queryUser(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		badRequest(c, "userId is required", nil)
		return
	}
	out, err := h.Store.ListNotifications(c.Request.Context(), uid, config.NotificationListLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	n, err := h.Store.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
