package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/redis/go-redis/v9"
)

// DeliveryContext is where a user's client currently is, as reported by the
// platform shell
type DeliveryContext string

const (
	DeliveryForeground DeliveryContext = "foreground"
	DeliveryBackground DeliveryContext = "background"
)

// Valid reports whether c is one of the two known contexts
func (c DeliveryContext) Valid() bool {
	return c == DeliveryForeground || c == DeliveryBackground
}

// PresenceStore remembers each user's delivery context for a limited time.
// Get returns DeliveryBackground for users with no live report.
type PresenceStore interface {
	Set(ctx context.Context, userID uint, dc DeliveryContext) error
	Get(ctx context.Context, userID uint) (DeliveryContext, error)
}

// PresenceService validates and records delivery context reports
type PresenceService struct {
	store PresenceStore
	log   logger.Logger
}

// NewPresenceService creates the presence service
func NewPresenceService(store PresenceStore, log logger.Logger) *PresenceService {
	return &PresenceService{store: store, log: log.WithFields(map[string]interface{}{"component": "presence"})}
}

// Report records userID's current delivery context
func (s *PresenceService) Report(ctx context.Context, userID uint, dc DeliveryContext) error {
	if !dc.Valid() {
		return NewValidationError("INVALID_STATE", "state must be foreground or background")
	}
	if err := s.store.Set(ctx, userID, dc); err != nil {
		s.log.WithError(err).Warn("presence update failed", map[string]interface{}{"user_id": userID})
		return NewStorageError("failed to update presence", err)
	}
	return nil
}

// RedisPresence keeps delivery contexts in Redis keys that expire
type RedisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPresence creates a presence store over rdb
func NewRedisPresence(rdb *redis.Client, ttl time.Duration) *RedisPresence {
	return &RedisPresence{rdb: rdb, ttl: ttl}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Set stores dc for the configured ttl
func (p *RedisPresence) Set(ctx context.Context, userID uint, dc DeliveryContext) error {
	return p.rdb.Set(ctx, presenceKey(userID), string(dc), p.ttl).Err()
}

// Get returns the stored context or background when it expired
func (p *RedisPresence) Get(ctx context.Context, userID uint) (DeliveryContext, error) {
	val, err := p.rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return DeliveryBackground, nil
	}
	if err != nil {
		return DeliveryBackground, err
	}
	dc := DeliveryContext(val)
	if !dc.Valid() {
		return DeliveryBackground, nil
	}
	return dc, nil
}

type presenceEntry struct {
	dc      DeliveryContext
	expires time.Time
}

// MemoryPresence is a single-process PresenceStore
type MemoryPresence struct {
	mu      sync.RWMutex
	entries map[uint]presenceEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryPresence creates an in-process presence store
func NewMemoryPresence(ttl time.Duration) *MemoryPresence {
	return &MemoryPresence{entries: make(map[uint]presenceEntry), ttl: ttl, now: time.Now}
}

// Set stores dc for the configured ttl
func (p *MemoryPresence) Set(ctx context.Context, userID uint, dc DeliveryContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[userID] = presenceEntry{dc: dc, expires: p.now().Add(p.ttl)}
	return nil
}

// Get returns the stored context or background when it expired
func (p *MemoryPresence) Get(ctx context.Context, userID uint) (DeliveryContext, error) {
	p.mu.RLock()
	entry, ok := p.entries[userID]
	p.mu.RUnlock()
	if !ok || !p.now().Before(entry.expires) {
		return DeliveryBackground, nil
	}
	return entry.dc, nil
}
