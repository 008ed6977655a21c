package models

import (
	"fmt"
	"time"
)

// MaxMessageLength is the maximum number of characters in a message body
const MaxMessageLength = 5000

// Attachment describes a file stored in the private attachment bucket
type Attachment struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Message represents one message in a listing conversation
type Message struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"` // UUIDv7, sortable by creation time
	ListingID  uint      `gorm:"not null;index:idx_messages_conversation" json:"listing_id"`
	SenderID   uint      `gorm:"not null;index:idx_messages_conversation" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_conversation;index:idx_messages_unread" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_messages_unread" json:"is_read"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`

	AttachmentPath *string `gorm:"size:512" json:"attachment_path,omitempty"`
	AttachmentName *string `gorm:"size:255" json:"attachment_name,omitempty"`
	AttachmentType *string `gorm:"size:255" json:"attachment_type,omitempty"`
	AttachmentSize *int64  `json:"attachment_size,omitempty"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// HasAttachment reports whether the message carries a file
func (m Message) HasAttachment() bool {
	return m.AttachmentPath != nil && *m.AttachmentPath != ""
}

// Attachment returns the attachment metadata, or nil when there is none
func (m Message) Attachment() *Attachment {
	if !m.HasAttachment() {
		return nil
	}
	a := &Attachment{Path: *m.AttachmentPath}
	if m.AttachmentName != nil {
		a.Name = *m.AttachmentName
	}
	if m.AttachmentType != nil {
		a.Type = *m.AttachmentType
	}
	if m.AttachmentSize != nil {
		a.Size = *m.AttachmentSize
	}
	return a
}

// SetAttachment copies attachment metadata onto the message columns
func (m *Message) SetAttachment(a *Attachment) {
	if a == nil {
		m.AttachmentPath, m.AttachmentName, m.AttachmentType, m.AttachmentSize = nil, nil, nil, nil
		return
	}
	path, name, typ, size := a.Path, a.Name, a.Type, a.Size
	m.AttachmentPath = &path
	m.AttachmentName = &name
	m.AttachmentType = &typ
	m.AttachmentSize = &size
}

// InConversation reports whether the message belongs to the conversation between
// userID and otherUserID on the listing, in either direction
func (m Message) InConversation(listingID, userID, otherUserID uint) bool {
	if m.ListingID != listingID {
		return false
	}
	return (m.SenderID == userID && m.ReceiverID == otherUserID) ||
		(m.SenderID == otherUserID && m.ReceiverID == userID)
}

// Less orders messages by creation time, then by id
func (m Message) Less(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// AttachmentOnlyContent is the display text stored for messages sent without a body
func AttachmentOnlyContent(name string) string {
	return fmt.Sprintf("Sent a file: %s", name)
}
