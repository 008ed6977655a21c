package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// Frame types exchanged over the socket
const (
	FrameSnapshot = "snapshot"
	FrameMarkRead = "mark_read"
	FrameError    = "error"
)

// ReadMarker marks the local user's side of a conversation read
type ReadMarker interface {
	MarkRead(ctx context.Context, listingID, readerID, otherUserID uint) (int64, error)
}

type snapshotFrame struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type inboundFrame struct {
	Type string `json:"type"`
}

// Client streams one Session to a websocket connection
type Client struct {
	conn    *websocket.Conn
	session *Session
	reads   ReadMarker
	log     logger.Logger
	errs    chan string
}

// NewClient binds an open session to an upgraded connection
func NewClient(conn *websocket.Conn, session *Session, reads ReadMarker, log logger.Logger) *Client {
	return &Client{
		conn:    conn,
		session: session,
		reads:   reads,
		log:     log,
		errs:    make(chan string, 8),
	}
}

// Serve runs until either side goes away, then closes the session and the
// connection
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		_ = c.session.Close()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("websocket read failed", nil)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.reportError("invalid_json")
			continue
		}
		switch frame.Type {
		case FrameMarkRead:
			conv := c.session.conv
			if _, err := c.reads.MarkRead(c.session.ctx, conv.ListingID, conv.UserID, conv.OtherUserID); err != nil {
				c.log.WithError(err).Warn("mark read over websocket failed", nil)
				c.reportError("mark_read_failed")
			}
		default:
			c.reportError("unsupported_type")
		}
	}
}

func (c *Client) reportError(code string) {
	select {
	case c.errs <- code:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.session.Updates():
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "conversation closed"))
				return
			}
			if err := c.write(snapshotFrame{Type: FrameSnapshot, Messages: snap.Messages}); err != nil {
				return
			}
		case code := <-c.errs:
			if err := c.write(errorFrame{Type: FrameError, Error: code}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frame interface{}) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}
