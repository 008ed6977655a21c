// Package repository holds the gorm-backed stores the services run on.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/studentbridge-api/feed"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// MessageRepository persists conversation messages and publishes every
// committed insert or read-state update to the change feed
type MessageRepository struct {
	db   *gorm.DB
	feed feed.Feed
	log  logger.Logger
}

// NewMessageRepository creates a message store over db. A nil feed disables publishing.
func NewMessageRepository(db *gorm.DB, changes feed.Feed, log logger.Logger) *MessageRepository {
	return &MessageRepository{
		db:   db,
		feed: changes,
		log:  log.WithFields(map[string]interface{}{"component": "message_repository"}),
	}
}

// Create inserts msg. The caller assigns ID and CreatedAt.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	r.publish(ctx, feed.OpInsert, *msg)
	return nil
}

// FindByID loads a single message
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

// ListConversation returns every message between userID and otherUserID on
// the listing, in either direction, ordered by (created_at, id)
func (r *MessageRepository) ListConversation(ctx context.Context, listingID, userID, otherUserID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userID, otherUserID).
				Or("sender_id = ? AND receiver_id = ?", otherUserID, userID),
		).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return messages, nil
}

// MarkConversationRead flips every unread message from otherUserID to readerID
// on the listing and returns how many rows changed. The flipped ids go out
// as a single read event however many there are.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, listingID, readerID, otherUserID uint) (int64, error) {
	var (
		ids     []string
		changed int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("listing_id = ? AND sender_id = ? AND receiver_id = ? AND is_read = ?", listingID, otherUserID, readerID, false).
			Order("created_at ASC").Order("id ASC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		// Rows flipped by a concurrent reader in between are not counted twice.
		result := tx.Model(&models.Message{}).
			Where("id IN ? AND is_read = ?", ids, false).
			Update("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		changed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}

	if len(ids) > 0 {
		r.publishEvent(ctx, feed.Event{
			Op: feed.OpRead,
			Receipt: &feed.ReadReceipt{
				ListingID:  listingID,
				ReaderID:   readerID,
				SenderID:   otherUserID,
				MessageIDs: ids,
			},
		})
	}
	return changed, nil
}

// MarkRead flips a single message to read if readerID is its receiver.
// It reports whether the row changed.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID string, readerID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND receiver_id = ? AND is_read = ?", messageID, readerID, false).
		Update("is_read", true)
	if result.Error != nil {
		return false, fmt.Errorf("mark message read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	msg, err := r.FindByID(ctx, messageID)
	if err != nil {
		r.log.WithError(err).Warn("reload after read failed", map[string]interface{}{"message_id": messageID})
		return true, nil
	}
	r.publish(ctx, feed.OpUpdate, *msg)
	return true, nil
}

// CountUnread returns the number of unread messages addressed to userID
func (r *MessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) publish(ctx context.Context, op feed.Op, msg models.Message) {
	r.publishEvent(ctx, feed.Event{Op: op, Message: msg})
}

func (r *MessageRepository) publishEvent(ctx context.Context, event feed.Event) {
	if r.feed == nil {
		return
	}
	// the rows are committed either way
	if err := r.feed.Publish(ctx, event); err != nil {
		r.log.WithError(err).Warn("feed publish failed", map[string]interface{}{
			"op":         event.Op,
			"message_id": event.Message.ID,
			"listing_id": event.ListingID(),
		})
	}
}
