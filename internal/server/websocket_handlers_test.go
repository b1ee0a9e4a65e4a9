package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"moneyshelf/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketFeed_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "plain")

	resp, _ := env.do(t, http.MethodGet, "/api/ws/feed", nil, token)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/ws/feed", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketFeed_DeliversEvents(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "listener")
	authorToken, _ := env.register(t, "poster")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.server.hub.StartWiring(ctx, env.server.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() {
		_ = env.server.hub.Shutdown(context.Background())
		_ = env.app.Shutdown()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/feed?token="+token, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.Eventually(t, func() bool { return env.server.hub.ConnectionCount() == 1 },
		2*time.Second, 20*time.Millisecond)

	resp, body := env.do(t, http.MethodPost, "/api/posts", fiber.Map{"title": "hello", "content": "world"}, authorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.FeedEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, notifications.EventPostCreated, ev.Type)
	assert.NotZero(t, ev.PostID)
}
