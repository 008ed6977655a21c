package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// ApplyRequest represents the request body for applying to a listing
type ApplyRequest struct {
	Message string `json:"message" binding:"max=2000"`
}

// DecideInterestRequest represents the request body for deciding an application
type DecideInterestRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// InterestController drives the application lifecycle that gates messaging
type InterestController struct {
	interests *services.InterestService
}

// NewInterestController creates an InterestController
func NewInterestController(interests *services.InterestService) *InterestController {
	return &InterestController{interests: interests}
}

// Apply handles POST /api/v1/listings/:id/interests (students only)
func (ic *InterestController) Apply(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := idParam(c, "id", "Listing ID")
	if !ok {
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	interest, err := ic.interests.Apply(c.Request.Context(), user, listingID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, interest)
}

// ListPending handles GET /api/v1/listings/:id/interests (listing owner only)
func (ic *InterestController) ListPending(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := idParam(c, "id", "Listing ID")
	if !ok {
		return
	}

	pending, err := ic.interests.Pending(c.Request.Context(), user, listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if pending == nil {
		pending = []models.Interest{}
	}
	respondData(c, http.StatusOK, pending)
}

// Decide handles PATCH /api/v1/interests/:id (listing owner only)
func (ic *InterestController) Decide(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	interestID, ok := idParam(c, "id", "Interest ID")
	if !ok {
		return
	}

	var req DecideInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	interest, err := ic.interests.Decide(c.Request.Context(), user, interestID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, interest)
}

// CloseListing handles POST /api/v1/listings/:id/close (listing owner only).
// Pending applications are rejected and returned.
func (ic *InterestController) CloseListing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := idParam(c, "id", "Listing ID")
	if !ok {
		return
	}

	rejected, err := ic.interests.CloseListing(c.Request.Context(), user, listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rejected == nil {
		rejected = []models.Interest{}
	}
	respondData(c, http.StatusOK, gin.H{"listing_id": listingID, "status": models.ListingClosed, "rejected": rejected})
}
