// Package feed carries row-level change events for the messages table to
// every subscriber interested in a listing.
package feed

import (
	"context"
	"errors"

	"github.com/kendall-kelly/studentbridge-api/models"
)

// Op is the kind of row change
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	// OpRead carries a conversation-wide mark-read as one event
	OpRead Op = "read"
)

// Event is one committed change. Insert and update events hold the full row
// after the change in Message; read events hold Receipt.
type Event struct {
	Op      Op             `json:"op"`
	Message models.Message `json:"message"`
	Receipt *ReadReceipt   `json:"receipt,omitempty"`
}

// ReadReceipt lists the messages from SenderID to ReaderID on a listing that
// one bulk mark-read flipped
type ReadReceipt struct {
	ListingID  uint     `json:"listing_id"`
	ReaderID   uint     `json:"reader_id"`
	SenderID   uint     `json:"sender_id"`
	MessageIDs []string `json:"message_ids"`
}

// ListingID is the listing the event is routed by
func (e Event) ListingID() uint {
	if e.Receipt != nil {
		return e.Receipt.ListingID
	}
	return e.Message.ListingID
}

// ErrClosed is returned when publishing or subscribing on a closed feed
var ErrClosed = errors.New("feed closed")

// Feed publishes committed message changes and hands out subscriptions
// filtered by listing id. Delivery is at-least-once and unordered.
type Feed interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns once the subscription is active, so every event
	// published after it returns is delivered.
	Subscribe(ctx context.Context, listingID uint) (Subscription, error)
	Close() error
}

// Subscription is a live filtered view of the feed. C is closed after Close
// or when the subscriber falls too far behind.
type Subscription interface {
	C() <-chan Event
	Close() error
}
