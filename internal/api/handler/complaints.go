package handler

import (
	"math"
	"net/http"
	"strconv"

	"nagarneuron/backend/internal/complaint"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/verification"

	"github.com/gin-gonic/gin"
)

// ListComplaints serves GET /api/complaints. Unknown filter values are
// ignored rather than rejected.
func (h *Handler) ListComplaints(c *gin.Context) {
	f := storage.ComplaintFilter{}
	if cat := models.Category(c.Query("category")); cat.Valid() {
		f.Category = cat
	}
	if st := models.Status(c.Query("status")); st.Valid() {
		f.Status = st
	}
	if raw := c.Query("userId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			uid := uint(id)
			f.UserID = &uid
		}
	}
	out, err := h.Complaints.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	out, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type createComplaintRequest struct {
	Image     string   `json:"image" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Notes     *string  `json:"notes"`
	UserID    *uint    `json:"userId"`
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	var req createComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	sub := complaint.Submission{
		Image:     req.Image,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Notes:     req.Notes,
	}
	if uid, ok := resolveUser(c, req.UserID); ok {
		sub.UserID = &uid
	}
	out, err := h.Complaints.Submit(c.Request.Context(), sub)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type statusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

type statusResponse struct {
	*models.Complaint
	PointsEarned int      `json:"pointsEarned"`
	Warnings     []string `json:"warnings,omitempty"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	out, err := h.Lifecycle.Transition(c.Request.Context(), c.Param("id"), models.Status(req.Status), req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Complaint:    out.Complaint,
		PointsEarned: out.PointsEarned,
		Warnings:     out.Warnings,
	})
}

type verifyRequest struct {
	UserID    *uint    `json:"userId"`
	Status    string   `json:"status"`
	Photo     *string  `json:"photo"`
	Comment   *string  `json:"comment"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type verifyResponse struct {
	*models.Complaint
	PointsEarned int            `json:"pointsEarned"`
	NewBadges    []models.Badge `json:"newBadges"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// Verify serves POST /api/complaints/:id/verify. Every call adds a vote.
func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	uid, ok := resolveUser(c, req.UserID)
	if !ok || req.Status == "" {
		badRequest(c, "userId and status are required", nil)
		return
	}
	res, err := h.Votes.CastVote(c.Request.Context(), c.Param("id"), verification.Ballot{
		UserID:    uid,
		Vote:      models.Vote(req.Status),
		Photo:     req.Photo,
		Comment:   req.Comment,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Complaint:    res.Complaint,
		PointsEarned: res.PointsEarned,
		NewBadges:    res.NewBadges,
		Warnings:     res.Warnings,
	})
}

func (h *Handler) NearbyUnverified(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, "lat and lng must be numbers", nil)
		return
	}
	radius := config.DefaultNearbyRadiusKm
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
			badRequest(c, "radius must be a number", nil)
			return
		}
		radius = r
	}
	out, err := h.Nearby.NearbyUnverified(c.Request.Context(), lat, lng, radius)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.Complaints.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Hotspots(c *gin.Context) {
	hs, err := h.Store.ListHotspots(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hs)
}
