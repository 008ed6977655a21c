// Package realtime keeps an open conversation view in sync with the message
// change feed.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/kendall-kelly/studentbridge-api/feed"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/kendall-kelly/studentbridge-api/models"
)

// State is the lifecycle stage of a Session
type State int

const (
	StateLoading State = iota
	StateLive
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// maxPendingReads bounds the read flags kept for inserts not seen yet
const maxPendingReads = 4096

// ErrFeedClosed is reported when the feed drops the subscription
var ErrFeedClosed = errors.New("change feed subscription closed")

// Conversation identifies one listing conversation from the viewer's side
type Conversation struct {
	ListingID   uint
	UserID      uint // local user
	OtherUserID uint
}

// MessageSource is the message service as seen by a sync session
type MessageSource interface {
	List(ctx context.Context, listingID, userID, otherUserID uint) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, readerID uint, messageID string) (bool, error)
}

// Snapshot is the full ordered conversation after a change
type Snapshot struct {
	Messages []models.Message `json:"messages"`
}

// Session is one client's live view of a conversation. It starts from an
// authoritative fetch, then merges feed events: inserts are deduplicated by
// id, updates only ever flip is_read to true, and state stays ordered by
// (created_at, id) whatever the delivery order.
type Session struct {
	conv   Conversation
	source MessageSource
	sub    feed.Subscription
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	state    State
	messages []models.Message
	err      error

	// read flags that arrived before their insert; owned by run
	pendingReads map[string]struct{}

	updates chan Snapshot
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Open subscribes to the listing feed, loads the conversation and starts
// merging. The subscription is opened before the fetch so nothing committed
// in between is missed; the dedup absorbs the overlap.
func Open(ctx context.Context, changes feed.Feed, source MessageSource, conv Conversation, log logger.Logger) (*Session, error) {
	sessCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conv:    conv,
		source:  source,
		log:     log.WithFields(map[string]interface{}{"component": "sync", "listing_id": conv.ListingID, "user_id": conv.UserID}),
		ctx:     sessCtx,
		cancel:  cancel,
		state:   StateLoading,
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),

		pendingReads: make(map[string]struct{}),
	}

	sub, err := changes.Subscribe(ctx, conv.ListingID)
	if err != nil {
		cancel()
		return nil, err
	}
	s.sub = sub

	initial, err := source.List(ctx, conv.ListingID, conv.UserID, conv.OtherUserID)
	if err != nil {
		_ = sub.Close()
		cancel()
		return nil, err
	}

	msgs := make([]models.Message, len(initial))
	copy(msgs, initial)
	sortMessages(msgs)

	s.mu.Lock()
	s.messages = msgs
	s.state = StateLive
	s.mu.Unlock()

	metrics.SyncSessionsActive.Inc()
	s.emit()

	s.wg.Add(1)
	go s.run()
	return s, nil
}

// Updates delivers the latest snapshot after every change. Older snapshots
// not yet consumed are replaced. The channel is closed on detach.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Done is closed when the session detaches
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the lifecycle stage
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns why the session detached on its own, or nil
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Messages returns a copy of the current ordered state
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close detaches the session and releases its feed subscription. No update is
// delivered after Close returns.
func (s *Session) Close() error {
	s.detach(nil)
	s.wg.Wait()
	return nil
}

func (s *Session) detach(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = StateDetached
		s.err = reason
		s.mu.Unlock()

		s.cancel()
		close(s.done)
		if err := s.sub.Close(); err != nil {
			s.log.WithError(err).Warn("closing feed subscription failed", nil)
		}
		metrics.SyncSessionsActive.Dec()
	})
}

func (s *Session) run() {
	defer s.wg.Done()
	defer func() {
		// a snapshot still buffered at detach is withdrawn
		select {
		case <-s.updates:
		default:
		}
		close(s.updates)
	}()

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.sub.C():
			if !ok {
				s.detach(ErrFeedClosed)
				return
			}
			if s.apply(ev) {
				s.emit()
			}
		}
	}
}

// apply merges one feed event and reports whether the visible state changed
func (s *Session) apply(ev feed.Event) bool {
	if ev.Op == feed.OpRead {
		return s.applyReceipt(ev.Receipt)
	}

	msg := ev.Message
	if !msg.InConversation(s.conv.ListingID, s.conv.UserID, s.conv.OtherUserID) {
		return false
	}

	switch ev.Op {
	case feed.OpInsert:
		if !s.has(msg.ID) {
			if _, ok := s.pendingReads[msg.ID]; ok {
				delete(s.pendingReads, msg.ID)
				msg.IsRead = true
			}
			if msg.ReceiverID == s.conv.UserID && !msg.IsRead {
				s.acknowledge(&msg)
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		var changed bool
		s.messages, changed = mergeInsert(s.messages, msg)
		return changed

	case feed.OpUpdate:
		return s.markRead([]string{msg.ID}, msg.IsRead)

	default:
		return false
	}
}

// applyReceipt applies a bulk mark-read when it belongs to this conversation
func (s *Session) applyReceipt(r *feed.ReadReceipt) bool {
	if r == nil || r.ListingID != s.conv.ListingID {
		return false
	}
	inConversation := (r.ReaderID == s.conv.UserID && r.SenderID == s.conv.OtherUserID) ||
		(r.ReaderID == s.conv.OtherUserID && r.SenderID == s.conv.UserID)
	if !inConversation {
		return false
	}
	return s.markRead(r.MessageIDs, true)
}

// markRead patches the read flag of ids. Ids not merged yet are remembered
// and applied when their insert arrives.
func (s *Session) markRead(ids []string, isRead bool) bool {
	if !isRead {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, id := range ids {
		i := indexOf(s.messages, id)
		if i < 0 {
			if len(s.pendingReads) < maxPendingReads {
				s.pendingReads[id] = struct{}{}
			}
			continue
		}
		if patchRead(s.messages, i, true) {
			changed = true
		}
	}
	return changed
}

// acknowledge marks an incoming message read before it is shown, so the
// sender's receipt converges without waiting for the next full read
func (s *Session) acknowledge(msg *models.Message) {
	if _, err := s.source.MarkMessageRead(s.ctx, s.conv.UserID, msg.ID); err != nil {
		if s.ctx.Err() == nil {
			s.log.WithError(err).Warn("read receipt failed", map[string]interface{}{"message_id": msg.ID})
		}
		return
	}
	msg.IsRead = true
}

func (s *Session) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.messages, id) >= 0
}

func (s *Session) emit() {
	select {
	case <-s.done:
		return
	default:
	}

	snap := Snapshot{Messages: s.Messages()}
	select {
	case s.updates <- snap:
		return
	default:
	}
	// drop the stale snapshot the consumer has not picked up
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}
