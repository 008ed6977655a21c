package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// PresenceRequest reports whether the app is in the foreground
type PresenceRequest struct {
	State string `json:"state" binding:"required"`
}

// PresenceController receives the delivery context from the platform shell
type PresenceController struct {
	presence *services.PresenceService
}

// NewPresenceController creates a PresenceController
func NewPresenceController(presence *services.PresenceService) *PresenceController {
	return &PresenceController{presence: presence}
}

// Report handles PUT /api/v1/presence
func (pc *PresenceController) Report(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	dc := services.DeliveryContext(req.State)
	if err := pc.presence.Report(c.Request.Context(), user.ID, dc); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"state": dc})
}
