package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/middleware"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/services"
	"github.com/kendall-kelly/studentbridge-api/utils"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError writes err using the status of its service error kind
func respondError(c *gin.Context, err error) {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondErrorCode(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	var se *services.ServiceError
	if !errors.As(err, &se) {
		respondErrorCode(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case services.KindAuthorizationDenied:
		status = http.StatusForbidden
	case services.KindValidationFailed:
		status = http.StatusBadRequest
	case services.KindStorageUnavailable:
		status = http.StatusServiceUnavailable
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	}
	respondErrorCode(c, status, se.Code, se.Message)
}

// currentUser returns the user loaded by middleware.LoadCurrentUser, writing
// 401 when the route was registered without it
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", what+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func validationFailed(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}
