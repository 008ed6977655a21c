package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// NotificationController serves the current user's in-app notification feed
type NotificationController struct {
	notifications *services.NotificationService
}

// NewNotificationController creates a NotificationController
func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List handles GET /api/v1/notifications?limit=&offset=
func (nc *NotificationController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, err := nc.notifications.List(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	respondData(c, http.StatusOK, list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (nc *NotificationController) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := nc.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"count": n})
}

// MarkRead handles PATCH /api/v1/notifications/:id/read
func (nc *NotificationController) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "Notification ID")
	if !ok {
		return
	}

	if err := nc.notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id, "is_read": true})
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := nc.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"marked": n})
}

// Delete handles DELETE /api/v1/notifications/:id
func (nc *NotificationController) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "Notification ID")
	if !ok {
		return
	}

	if err := nc.notifications.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
