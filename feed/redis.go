package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisFeed fans events out across instances through Redis pub/sub
type RedisFeed struct {
	rdb *redis.Client
	log logger.Logger
}

// NewRedisFeed creates a feed on top of rdb. The client is owned by the caller.
func NewRedisFeed(rdb *redis.Client, log logger.Logger) *RedisFeed {
	return &RedisFeed{
		rdb: rdb,
		log: log.WithFields(map[string]interface{}{"component": "feed", "backend": "redis"}),
	}
}

// ChannelName is the pub/sub channel carrying one listing's message changes
func ChannelName(listingID uint) string {
	return fmt.Sprintf("messages:listing:%d", listingID)
}

// Publish sends event to the listing channel
func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode feed event: %w", err)
	}
	if err := f.rdb.Publish(ctx, ChannelName(event.ListingID()), payload).Err(); err != nil {
		return fmt.Errorf("publish feed event: %w", err)
	}
	metrics.FeedEventsPublished.WithLabelValues(string(event.Op)).Inc()
	return nil
}

// Subscribe opens a pub/sub subscription on the listing channel and waits for
// the server to confirm it
func (f *RedisFeed) Subscribe(ctx context.Context, listingID uint) (Subscription, error) {
	pubsub := f.rdb.Subscribe(ctx, ChannelName(listingID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to listing %d: %w", listingID, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(f.log.WithFields(map[string]interface{}{"listing_id": listingID}))
	return sub, nil
}

// Close is a no-op; the Redis client belongs to the caller
func (f *RedisFeed) Close() error {
	return nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) pump(log logger.Logger) {
	defer close(s.ch)
	for msg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.WithError(err).Warn("skipping malformed feed event", nil)
			continue
		}
		select {
		case s.ch <- event:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) C() <-chan Event {
	return s.ch
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
