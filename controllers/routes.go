package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/middleware"
	"github.com/kendall-kelly/studentbridge-api/models"
)

// Handlers groups the controllers mounted under /api/v1
type Handlers struct {
	Users         *UserController
	Messages      *MessageController
	Sync          *SyncController
	Attachments   *AttachmentController
	Notifications *NotificationController
	Interests     *InterestController
	Presence      *PresenceController
}

// RegisterRoutes mounts every authenticated route on v1. authenticate
// validates the bearer token; users resolves its subject to a profile.
func RegisterRoutes(v1 *gin.RouterGroup, authenticate gin.HandlerFunc, users middleware.UserLookup, h Handlers) {
	// profile creation needs only a valid token
	v1.POST("/users", authenticate, h.Users.CreateUser)

	api := v1.Group("")
	api.Use(authenticate, middleware.LoadCurrentUser(users))
	{
		api.GET("/users/me", h.Users.GetMyProfile)
		api.PUT("/users/me", h.Users.UpdateMyProfile)

		conv := api.Group("/listings/:id/conversations/:userId")
		conv.GET("/access", h.Messages.CanMessage)
		conv.GET("/messages", h.Messages.ListMessages)
		conv.POST("/messages", h.Messages.SendMessage)
		conv.POST("/read", h.Messages.MarkRead)
		conv.GET("/ws", h.Sync.Connect)

		api.GET("/messages/unread-count", h.Messages.UnreadCount)

		api.POST("/attachments", h.Attachments.Upload)
		api.POST("/attachments/signed-url", h.Attachments.SignedURL)

		api.GET("/notifications", h.Notifications.List)
		api.GET("/notifications/unread-count", h.Notifications.UnreadCount)
		api.PATCH("/notifications/:id/read", h.Notifications.MarkRead)
		api.POST("/notifications/read-all", h.Notifications.MarkAllRead)
		api.DELETE("/notifications/:id", h.Notifications.Delete)

		api.POST("/listings/:id/interests", middleware.RequireRole(models.RoleStudent), h.Interests.Apply)
		api.GET("/listings/:id/interests", middleware.RequireRole(models.RoleBusiness), h.Interests.ListPending)
		api.POST("/listings/:id/close", middleware.RequireRole(models.RoleBusiness), h.Interests.CloseListing)
		api.PATCH("/interests/:id", middleware.RequireRole(models.RoleBusiness), h.Interests.Decide)

		api.PUT("/presence", h.Presence.Report)
	}
}
