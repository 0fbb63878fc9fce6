package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lendinghub/internal/microservices/http-api/handler"
	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/service"
	"lendinghub/internal/microservices/loanwatch"
	"lendinghub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScans struct{}

func (stubScans) RunNow(context.Context) loanwatch.PassResult {
	return loanwatch.PassResult{Trigger: loanwatch.TriggerManual}
}

func setup(t *testing.T) (*gin.Engine, service.TokenService, *websocket.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService("secret")
	registry := websocket.NewRegistry(zap.NewNop())
	t.Cleanup(registry.Close)

	h := handler.NewNotificationHandler(nil, stubScans{}, loanwatch.NewMemoryHistory(5), zap.NewNop())
	r := New(Dependencies{Tokens: tokens, Notifications: h, Registry: registry, Logger: zap.NewNop()})
	return r, tokens, registry
}

func TestRouter_Operational(t *testing.T) {
	r, _, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_RequiresAuth(t *testing.T) {
	r, tokens, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/scan", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	librarian, err := tokens.IssueToken(3, models.RoleLibrarian, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/scan", nil)
	req.Header.Set("Authorization", "Bearer "+librarian)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WebSocketTokenAuth(t *testing.T) {
	r, tokens, registry := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"

	_, resp, err := gorillaws.DefaultDialer.Dial(base+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.IssueToken(8, models.RoleMember, time.Minute)
	require.NoError(t, err)
	conn, _, err := gorillaws.DefaultDialer.Dial(base+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return registry.HasUser(8) }, time.Second, 10*time.Millisecond)
}
