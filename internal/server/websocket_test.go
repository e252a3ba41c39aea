package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the test app on a loopback port and returns its address.
func (e *testEnv) listen() string {
	e.t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(e.t, err)
	go func() { _ = e.app.Listener(ln) }()
	e.t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func TestWebsocket_DeliversNotifications(t *testing.T) {
	e := newTestEnv(t)
	adaTok, graceTok := e.token("ada"), e.token("grace")
	adaID := e.userID(adaTok)
	e.userID(graceTok)

	addr := e.listen()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?token="+adaTok, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return e.srv.hub.ConnectionCount(adaID) == 1 },
		2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/users/%d/follow", addr, adaID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+graceTok)
	followResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = followResp.Body.Close()
	require.Equal(t, http.StatusOK, followResp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string                            `json:"type"`
		Payload notifications.NotificationPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev), string(raw))
	assert.Equal(t, notifications.EventNotificationCreated, ev.Type)
	assert.Equal(t, models.NotificationFollow, ev.Payload.Type)
	assert.Equal(t, "grace", ev.Payload.Creator.Username)
	assert.NotZero(t, ev.Payload.ID)
}

func TestWebsocket_RejectsAnonymousDial(t *testing.T) {
	e := newTestEnv(t)
	addr := e.listen()

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?token=not-a-token", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
