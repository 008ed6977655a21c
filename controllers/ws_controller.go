package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/studentbridge-api/feed"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/realtime"
	"github.com/kendall-kelly/studentbridge-api/services"
)

// SyncController upgrades conversation views to live websocket sessions
type SyncController struct {
	changes  feed.Feed
	messages *services.MessageService
	views    ConversationViews
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewSyncController creates a SyncController. An empty allowedOrigins list
// accepts any origin.
func NewSyncController(changes feed.Feed, messages *services.MessageService, views ConversationViews, allowedOrigins []string, log logger.Logger) *SyncController {
	return &SyncController{
		changes:  changes,
		messages: messages,
		views:    views,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Connect handles GET /api/v1/listings/:id/conversations/:userId/ws.
// The session is opened before the upgrade so a denial is a plain 403.
func (sc *SyncController) Connect(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, otherUserID, ok := conversation(c)
	if !ok {
		return
	}

	conv := realtime.Conversation{ListingID: listingID, UserID: user.ID, OtherUserID: otherUserID}
	session, err := realtime.Open(c.Request.Context(), sc.changes, sc.messages, conv, sc.log)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sc.log.WithError(err).Warn("websocket upgrade failed", nil)
		_ = session.Close()
		return
	}

	if sc.views != nil {
		sc.views.ConversationOpened(c.Request.Context(), user.ID, listingID, otherUserID)
	}
	realtime.NewClient(conn, session, sc.messages, sc.log).Serve()
}
