package feed

import (
	"context"
	"sync"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
)

const subscriberBuffer = 256

// MemoryFeed is a single-process feed
type MemoryFeed struct {
	mu     sync.RWMutex
	subs   map[uint]map[*memorySubscription]struct{}
	closed bool
	log    logger.Logger
}

// NewMemoryFeed creates an in-process feed
func NewMemoryFeed(log logger.Logger) *MemoryFeed {
	return &MemoryFeed{
		subs: make(map[uint]map[*memorySubscription]struct{}),
		log:  log.WithFields(map[string]interface{}{"component": "feed", "backend": "memory"}),
	}
}

// Publish delivers event to every subscriber of the message's listing.
// A subscriber whose buffer is full is disconnected rather than blocking the writer.
func (f *MemoryFeed) Publish(ctx context.Context, event Event) error {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return ErrClosed
	}
	var slow []*memorySubscription
	for sub := range f.subs[event.ListingID()] {
		select {
		case sub.ch <- event:
		default:
			slow = append(slow, sub)
		}
	}
	f.mu.RUnlock()

	metrics.FeedEventsPublished.WithLabelValues(string(event.Op)).Inc()

	for _, sub := range slow {
		f.log.Warn("dropping slow subscriber", map[string]interface{}{"listing_id": sub.listingID})
		_ = sub.Close()
	}
	return nil
}

// Subscribe registers a subscriber for listingID
func (f *MemoryFeed) Subscribe(ctx context.Context, listingID uint) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		feed:      f,
		listingID: listingID,
		ch:        make(chan Event, subscriberBuffer),
	}
	if f.subs[listingID] == nil {
		f.subs[listingID] = make(map[*memorySubscription]struct{})
	}
	f.subs[listingID][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of active subscriptions on a listing
func (f *MemoryFeed) Subscribers(listingID uint) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[listingID])
}

// Close disconnects every subscriber
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	var all []*memorySubscription
	for _, subs := range f.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}

func (f *MemoryFeed) remove(sub *memorySubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[sub.listingID]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(f.subs, sub.listingID)
	}
	close(sub.ch)
}

type memorySubscription struct {
	feed      *MemoryFeed
	listingID uint
	ch        chan Event
	once      sync.Once
}

func (s *memorySubscription) C() <-chan Event {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() { s.feed.remove(s) })
	return nil
}
