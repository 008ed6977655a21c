package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"gorm.io/datatypes"
)

const (
	defaultNotificationPage = 50
	maxNotificationPage     = 100
	pushPreviewLength       = 100
)

// NotificationStore is the persistence behind the in-app notification feed
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	FindForUser(ctx context.Context, id, userID uint) (*models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// NotificationService turns committed domain events into in-app notifications
// and background pushes, and serves the notification feed
type NotificationService struct {
	store    NotificationStore
	presence PresenceStore
	notifier Notifier
	log      logger.Logger
}

// NewNotificationService creates the notification dispatcher
func NewNotificationService(store NotificationStore, presence PresenceStore, notifier Notifier, log logger.Logger) *NotificationService {
	return &NotificationService{
		store:    store,
		presence: presence,
		notifier: notifier,
		log:      log.WithFields(map[string]interface{}{"component": "notifications"}),
	}
}

// MessageCreated notifies the receiver of a new message
func (s *NotificationService) MessageCreated(ctx context.Context, msg models.Message) {
	if msg.ReceiverID == msg.SenderID {
		return
	}
	s.dispatch(ctx, &models.Notification{
		UserID: msg.ReceiverID,
		Type:   models.NotificationNewMessage,
		Title:  "New message",
		Body:   preview(msg.Content),
		Metadata: datatypes.JSONMap{
			"listing_id": msg.ListingID,
			"sender_id":  msg.SenderID,
			"message_id": msg.ID,
		},
	})
}

// InterestCreated notifies the listing owner of a new applicant
func (s *NotificationService) InterestCreated(ctx context.Context, interest models.Interest, ownerID uint) {
	s.dispatch(ctx, &models.Notification{
		UserID: ownerID,
		Type:   models.NotificationNewInterest,
		Title:  "New application",
		Body:   "A student applied to your listing",
		Metadata: datatypes.JSONMap{
			"listing_id":  interest.ListingID,
			"interest_id": interest.ID,
			"student_id":  interest.StudentID,
		},
	})
}

// InterestDecided notifies the student that their application was approved or rejected
func (s *NotificationService) InterestDecided(ctx context.Context, interest models.Interest) {
	n := &models.Notification{
		UserID: interest.StudentID,
		Metadata: datatypes.JSONMap{
			"listing_id":  interest.ListingID,
			"interest_id": interest.ID,
		},
	}
	switch interest.Status {
	case models.InterestApproved:
		n.Type = models.NotificationInterestApproved
		n.Title = "Application approved"
		n.Body = "Your application was approved. You can now message the business."
	case models.InterestRejected:
		n.Type = models.NotificationInterestRejected
		n.Title = "Application not selected"
		n.Body = "Your application was not selected"
	default:
		return
	}
	s.dispatch(ctx, n)
}

// ConversationOpened retracts pending pushes for the conversation userID is now viewing
func (s *NotificationService) ConversationOpened(ctx context.Context, userID, listingID, otherUserID uint) {
	s.DismissThread(ctx, userID, ChatThreadID(listingID, otherUserID))
}

// DismissThread retracts every pending push in the thread. Failures are logged only.
func (s *NotificationService) DismissThread(ctx context.Context, userID uint, threadID string) {
	if threadID == "" {
		return
	}
	if err := s.notifier.DismissThread(ctx, userID, threadID); err != nil {
		metrics.NotificationFailures.WithLabelValues("dismiss").Inc()
		s.log.WithError(err).Warn("thread dismissal failed", map[string]interface{}{
			"user_id":   userID,
			"thread_id": threadID,
		})
		return
	}
	metrics.PushDeliveries.WithLabelValues("dismissed").Inc()
}

// dispatch writes the notification and pushes it when the recipient is not in
// the foreground. Nothing here fails the triggering action.
func (s *NotificationService) dispatch(ctx context.Context, n *models.Notification) {
	fields := map[string]interface{}{"user_id": n.UserID, "type": n.Type}

	if err := s.store.Create(ctx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues("create").Inc()
		s.log.WithError(err).Error("notification create failed", fields)
	} else {
		metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()
	}

	dc, err := s.presence.Get(ctx, n.UserID)
	if err != nil {
		s.log.WithError(err).Warn("presence lookup failed, assuming background", fields)
		dc = DeliveryBackground
	}
	if dc == DeliveryForeground {
		metrics.PushDeliveries.WithLabelValues("suppressed").Inc()
		return
	}

	push := PushNotification{
		UserID:   n.UserID,
		Title:    n.Title,
		Body:     n.Body,
		ThreadID: ThreadID(n.Type, n.Metadata),
		Data:     map[string]interface{}(n.Metadata),
	}
	if err := s.notifier.Schedule(ctx, push); err != nil {
		metrics.NotificationFailures.WithLabelValues("push").Inc()
		s.log.WithError(err).Warn("push failed", fields)
		return
	}
	metrics.PushDeliveries.WithLabelValues("sent").Inc()
}

// List returns a page of userID's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationPage
	}
	if limit > maxNotificationPage {
		limit = maxNotificationPage
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.Notification
	err := retryRead(ctx, readRetryAttempts, readRetryDelay, func(ctx context.Context) error {
		page, err := s.store.ListByUser(ctx, userID, limit, offset)
		if err != nil {
			return NewStorageError("failed to load notifications", err)
		}
		list = page
		return nil
	})
	return list, err
}

// MarkRead marks one notification read and retracts pushes in its thread
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	n, err := s.store.FindForUser(ctx, id, userID)
	if err != nil {
		return notificationError(err, "failed to load notification")
	}
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		return notificationError(err, "failed to mark notification read")
	}
	s.DismissThread(ctx, userID, ThreadID(n.Type, n.Metadata))
	return nil
}

// MarkAllRead marks all of userID's notifications read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, NewStorageError("failed to mark notifications read", err)
	}
	return n, nil
}

// Delete removes one of userID's notifications
func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.store.Delete(ctx, id, userID); err != nil {
		return notificationError(err, "failed to delete notification")
	}
	return nil
}

// UnreadCount returns the number of unread notifications for userID
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, NewStorageError("failed to count notifications", err)
	}
	return n, nil
}

func notificationError(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewNotFoundError("NOTIFICATION_NOT_FOUND", "Notification not found")
	}
	return NewStorageError(message, err)
}

// ChatThreadID is the thread of the conversation with otherUserID on a listing
func ChatThreadID(listingID, otherUserID uint) string {
	return fmt.Sprintf("chat-%d-%d", listingID, otherUserID)
}

// ThreadID derives the grouping key of a notification from its type and
// metadata. It returns "" when the metadata is incomplete.
func ThreadID(notificationType string, metadata map[string]interface{}) string {
	listingID, ok := metadataID(metadata, "listing_id")
	if !ok {
		return ""
	}

	switch notificationType {
	case models.NotificationNewMessage:
		senderID, ok := metadataID(metadata, "sender_id")
		if !ok {
			return ""
		}
		return ChatThreadID(uint(listingID), uint(senderID))
	case models.NotificationInterestApproved, models.NotificationInterestRejected:
		return fmt.Sprintf("application-%d", listingID)
	case models.NotificationNewInterest:
		return fmt.Sprintf("interest-%d", listingID)
	default:
		return ""
	}
}

// metadataID reads a positive integer id from metadata. Values read back from
// the JSON column arrive as float64.
func metadataID(metadata map[string]interface{}, key string) (uint64, bool) {
	switch v := metadata[key].(type) {
	case uint:
		return uint64(v), v > 0
	case uint64:
		return v, v > 0
	case int:
		return uint64(v), v > 0
	case int64:
		return uint64(v), v > 0
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return 0, false
		}
		return uint64(v), true
	case json.Number:
		n, err := strconv.ParseUint(string(v), 10, 64)
		return n, err == nil && n > 0
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= pushPreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:pushPreviewLength]) + "…"
}
