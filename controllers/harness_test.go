package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/config"
	"github.com/kendall-kelly/studentbridge-api/feed"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"github.com/kendall-kelly/studentbridge-api/services"
	"github.com/kendall-kelly/studentbridge-api/tests/testutil"
	"github.com/kendall-kelly/studentbridge-api/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingNotifier captures pushes and dismissals
type recordingNotifier struct {
	mu         sync.Mutex
	pushes     []services.PushNotification
	dismissals []string
}

func (n *recordingNotifier) Schedule(ctx context.Context, push services.PushNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, push)
	return nil
}

func (n *recordingNotifier) DismissThread(ctx context.Context, userID uint, threadID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissals = append(n.dismissals, threadID)
	return nil
}

func (n *recordingNotifier) dismissed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.dismissals...)
}

func (n *recordingNotifier) pushCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pushes)
}

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		userInfo, exists := userInfoMap[token]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	}))
}

// apiHarness wires the real services over an in-memory database
type apiHarness struct {
	t        *testing.T
	db       *gorm.DB
	market   *testutil.Marketplace
	changes  *feed.MemoryFeed
	s3       *services.MockS3Service
	presence *services.MemoryPresence
	notifier *recordingNotifier
	messages *services.MessageService
	auth0    map[string]*services.Auth0UserInfo
	handlers Handlers
	users    *repository.UserRepository
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	log := logger.NewTestLogger(t)
	db := testutil.NewTestDB(t)

	h := &apiHarness{
		t:        t,
		db:       db,
		market:   testutil.SeedMarketplace(t, db),
		changes:  feed.NewMemoryFeed(log),
		s3:       services.NewMockS3Service(),
		presence: services.NewMemoryPresence(time.Minute),
		notifier: &recordingNotifier{},
		auth0:    map[string]*services.Auth0UserInfo{},
		users:    repository.NewUserRepository(db),
	}
	t.Cleanup(func() { _ = h.changes.Close() })

	auth0Server := setupMockAuth0Server(h.auth0)
	t.Cleanup(auth0Server.Close)
	userInfo := services.NewAuth0Service(&config.Config{Auth0Domain: auth0Server.URL})

	interests := repository.NewInterestRepository(db)
	listings := repository.NewListingRepository(db)
	policy := services.NewAccessPolicy(repository.PolicyStore{Listings: listings, Users: h.users, Interests: interests}, log)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), h.presence, h.notifier, log)
	h.messages = services.NewMessageService(policy, repository.NewMessageRepository(db, h.changes, log), notifications, log)
	attachments := services.NewAttachmentService(h.s3, utils.MaxAttachmentSize, services.DefaultSignedURLTTL, log)

	h.handlers = Handlers{
		Users:         NewUserController(h.users, userInfo),
		Messages:      NewMessageController(h.messages, policy, notifications),
		Sync:          NewSyncController(h.changes, h.messages, notifications, nil, log),
		Attachments:   NewAttachmentController(attachments, utils.MaxAttachmentSize),
		Notifications: NewNotificationController(notifications),
		Interests:     NewInterestController(services.NewInterestService(interests, listings, notifications, log)),
		Presence:      NewPresenceController(services.NewPresenceService(h.presence, log)),
	}
	return h
}

// router serves the API as the given user
func (h *apiHarness) router(user *models.User) *gin.Engine {
	return h.routerFor(user.Auth0ID, user.Role, "token-"+user.Name)
}

func (h *apiHarness) routerFor(auth0ID, role, token string) *gin.Engine {
	r := testutil.NewTestRouter()
	RegisterRoutes(r.Group("/api/v1"), testutil.MockAuth(auth0ID, role, token), h.users, h.handlers)
	return r
}

type apiResponse struct {
	Status  int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r apiResponse) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

func (h *apiHarness) do(user *models.User, method, path string, body interface{}) apiResponse {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.serve(h.router(user), req)
}

func (h *apiHarness) serve(r *gin.Engine, req *http.Request) apiResponse {
	h.t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := apiResponse{Status: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return resp
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
