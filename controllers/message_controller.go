package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// ConversationViews is told when a user opens a conversation so pending
// pushes for it can be dismissed
type ConversationViews interface {
	ConversationOpened(ctx context.Context, userID, listingID, otherUserID uint)
}

// AttachmentRequest references a file previously uploaded via POST /attachments
type AttachmentRequest struct {
	Path string `json:"path" binding:"required"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size" binding:"gte=0"`
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content    string             `json:"content"`
	Attachment *AttachmentRequest `json:"attachment"`
}

// MessageController serves the conversation between the current user and
// another participant of a listing
type MessageController struct {
	messages *services.MessageService
	policy   *services.AccessPolicy
	views    ConversationViews
}

// NewMessageController creates a MessageController
func NewMessageController(messages *services.MessageService, policy *services.AccessPolicy, views ConversationViews) *MessageController {
	return &MessageController{messages: messages, policy: policy, views: views}
}

// conversation reads the listing id and the other participant from the path
func conversation(c *gin.Context) (listingID, otherUserID uint, ok bool) {
	if listingID, ok = idParam(c, "id", "Listing ID"); !ok {
		return 0, 0, false
	}
	if otherUserID, ok = idParam(c, "userId", "User ID"); !ok {
		return 0, 0, false
	}
	return listingID, otherUserID, true
}

// CanMessage handles GET /api/v1/listings/:id/conversations/:userId/access
func (mc *MessageController) CanMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, otherUserID, ok := conversation(c)
	if !ok {
		return
	}

	allowed := mc.policy.CanMessage(c.Request.Context(), listingID, user.ID, otherUserID)
	respondData(c, http.StatusOK, gin.H{"can_message": allowed})
}

// SendMessage handles POST /api/v1/listings/:id/conversations/:userId/messages
func (mc *MessageController) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, otherUserID, ok := conversation(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	in := services.SendMessageInput{
		ListingID:  listingID,
		SenderID:   user.ID,
		ReceiverID: otherUserID,
		Content:    req.Content,
	}
	if req.Attachment != nil {
		in.Attachment = &models.Attachment{
			Path: req.Attachment.Path,
			Name: req.Attachment.Name,
			Type: req.Attachment.Type,
			Size: req.Attachment.Size,
		}
	}

	msg, err := mc.messages.Send(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, msg)
}

// ListMessages handles GET /api/v1/listings/:id/conversations/:userId/messages.
// Viewing the conversation dismisses its pending pushes.
func (mc *MessageController) ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, otherUserID, ok := conversation(c)
	if !ok {
		return
	}

	msgs, err := mc.messages.List(c.Request.Context(), listingID, user.ID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if mc.views != nil {
		mc.views.ConversationOpened(c.Request.Context(), user.ID, listingID, otherUserID)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respondData(c, http.StatusOK, msgs)
}

// MarkRead handles POST /api/v1/listings/:id/conversations/:userId/read
func (mc *MessageController) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, otherUserID, ok := conversation(c)
	if !ok {
		return
	}

	n, err := mc.messages.MarkRead(c.Request.Context(), listingID, user.ID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"marked": n})
}

// UnreadCount handles GET /api/v1/messages/unread-count
func (mc *MessageController) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := mc.messages.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"count": n})
}
