package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"github.com/kendall-kelly/studentbridge-api/utils"
)

// MessageStore is the persistence the message service runs on
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	ListConversation(ctx context.Context, listingID, userID, otherUserID uint) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, listingID, readerID, otherUserID uint) (int64, error)
	MarkRead(ctx context.Context, messageID string, readerID uint) (bool, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// MessageEvents receives committed messages. Implementations must not fail
// the caller.
type MessageEvents interface {
	MessageCreated(ctx context.Context, msg models.Message)
}

// SendMessageInput is a message about to be sent
type SendMessageInput struct {
	ListingID  uint
	SenderID   uint
	ReceiverID uint
	Content    string
	Attachment *models.Attachment
}

// MessageService sends, lists and acknowledges conversation messages. Every
// operation re-checks the access policy.
type MessageService struct {
	policy *AccessPolicy
	store  MessageStore
	events MessageEvents
	log    logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMessageService creates the message service. events may be nil.
func NewMessageService(policy *AccessPolicy, store MessageStore, events MessageEvents, log logger.Logger) *MessageService {
	return &MessageService{
		policy:   policy,
		store:    store,
		events:   events,
		log:      log.WithFields(map[string]interface{}{"component": "messages"}),
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Send validates and persists a message. It is never retried: a storage
// failure is returned to the caller as is.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)

	var attachment *models.Attachment
	if in.Attachment != nil {
		att, err := normalizeAttachment(in.SenderID, *in.Attachment)
		if err != nil {
			return nil, err
		}
		attachment = att
	}

	if content == "" && attachment == nil {
		return nil, NewValidationError("EMPTY_MESSAGE", "Message must have text or an attachment")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return nil, NewValidationError("MESSAGE_TOO_LONG", fmt.Sprintf("Message cannot exceed %d characters", models.MaxMessageLength))
	}

	if err := s.policy.authorize(ctx, "send", in.ListingID, in.SenderID, in.ReceiverID); err != nil {
		return nil, err
	}

	release, ok := s.acquire(in)
	if !ok {
		return nil, NewConflictError("SEND_IN_PROGRESS", "A message to this conversation is already being sent")
	}
	defer release()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, NewStorageError("failed to send message", err)
	}

	if content == "" {
		content = models.AttachmentOnlyContent(attachment.Name)
	}

	msg := &models.Message{
		ID:         id.String(),
		ListingID:  in.ListingID,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.now().UTC(),
	}
	msg.SetAttachment(attachment)

	if err := s.store.Create(ctx, msg); err != nil {
		s.log.WithError(err).Error("message insert failed", map[string]interface{}{
			"listing_id": in.ListingID,
			"sender_id":  in.SenderID,
		})
		return nil, NewStorageError("failed to send message", err)
	}

	metrics.MessagesSent.WithLabelValues(fmt.Sprintf("%t", msg.HasAttachment())).Inc()

	if s.events != nil {
		s.events.MessageCreated(ctx, *msg)
	}

	return msg, nil
}

// List returns the conversation between userID and otherUserID on the
// listing, ordered by (created_at, id)
func (s *MessageService) List(ctx context.Context, listingID, userID, otherUserID uint) ([]models.Message, error) {
	if err := s.policy.authorize(ctx, "list", listingID, userID, otherUserID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := retryRead(ctx, readRetryAttempts, readRetryDelay, func(ctx context.Context) error {
		list, err := s.store.ListConversation(ctx, listingID, userID, otherUserID)
		if err != nil {
			return NewStorageError("failed to load messages", err)
		}
		messages = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks every message otherUserID sent to readerID on the listing as
// read and returns how many changed. Repeating it returns 0.
func (s *MessageService) MarkRead(ctx context.Context, listingID, readerID, otherUserID uint) (int64, error) {
	if err := s.policy.authorize(ctx, "mark_read", listingID, readerID, otherUserID); err != nil {
		return 0, err
	}

	n, err := s.store.MarkConversationRead(ctx, listingID, readerID, otherUserID)
	if err != nil {
		return 0, NewStorageError("failed to mark messages read", err)
	}
	metrics.MessagesMarkedRead.Add(float64(n))
	return n, nil
}

// MarkMessageRead acknowledges a single message on behalf of its receiver and
// reports whether it changed
func (s *MessageService) MarkMessageRead(ctx context.Context, readerID uint, messageID string) (bool, error) {
	msg, err := s.store.FindByID(ctx, messageID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, NewStorageError("failed to load message", err)
	}

	// a missing message is denied like someone else's
	if msg == nil || msg.ReceiverID != readerID {
		metrics.AccessDenied.WithLabelValues("mark_message_read").Inc()
		return false, ErrAccessDenied()
	}
	if msg.IsRead {
		return false, nil
	}
	if err := s.policy.authorize(ctx, "mark_message_read", msg.ListingID, readerID, msg.SenderID); err != nil {
		return false, err
	}

	changed, err := s.store.MarkRead(ctx, messageID, readerID)
	if err != nil {
		return false, NewStorageError("failed to mark message read", err)
	}
	if changed {
		metrics.MessagesMarkedRead.Inc()
	}
	return changed, nil
}

// UnreadCount returns the number of unread messages addressed to userID
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := retryRead(ctx, readRetryAttempts, readRetryDelay, func(ctx context.Context) error {
		n, err := s.store.CountUnread(ctx, userID)
		if err != nil {
			return NewStorageError("failed to count unread messages", err)
		}
		count = n
		return nil
	})
	return count, err
}

// acquire guards against a double submit from the same sender into the same
// conversation while a send is still running
func (s *MessageService) acquire(in SendMessageInput) (func(), bool) {
	key := fmt.Sprintf("%d:%d:%d", in.ListingID, in.SenderID, in.ReceiverID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return nil, false
	}
	s.inFlight[key] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}, true
}

// normalizeAttachment checks attachment metadata supplied by a client. The
// object must live under the sender's own prefix.
func normalizeAttachment(senderID uint, in models.Attachment) (*models.Attachment, error) {
	key := NormalizeStoragePath(in.Path)
	if key == "" {
		return nil, NewValidationError("INVALID_ATTACHMENT", "Attachment path is required")
	}
	if !strings.HasPrefix(key, fmt.Sprintf("%d/", senderID)) {
		return nil, NewValidationError("INVALID_ATTACHMENT", "Attachment does not belong to the sender")
	}
	if in.Size < 0 || in.Size > utils.MaxAttachmentSize {
		return nil, NewValidationError("FILE_TOO_LARGE", utils.NewFileTooLargeError(utils.MaxAttachmentSize).Message)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = utils.DisplayFilename(key)
	}
	return &models.Attachment{Path: key, Name: name, Type: in.Type, Size: in.Size}, nil
}
