package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/SceneWriter/internal/services"
)

func readEvent(t *testing.T, conn *websocket.Conn) services.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event services.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestEditorWebSocket_ReceivesDocumentEvents(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/editor"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readEvent(t, conn).Type)
	require.Eventually(t, func() bool {
		return env.hub.Status()["total_connections"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(server.URL+"/api/classify", "application/json", strings.NewReader(`{"content":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/document", strings.NewReader(`{"title":"T","content":"C"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, services.EventDocumentSaved, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readEvent(t, conn).Type)
}

func TestEventHub_PublishWithoutClients(t *testing.T) {
	hub := NewEventHub()
	defer hub.Close()

	// nothing runs the loop: publish must still return
	for i := 0; i < 300; i++ {
		hub.Publish(services.Event{Type: "x", Timestamp: time.Now()})
	}
	assert.Equal(t, int64(300-256), hub.Status()["dropped_events"])
}

func TestEditorClient_Expiry(t *testing.T) {
	client := newEditorClient(nil)
	assert.False(t, client.IsExpired(time.Minute))
	assert.True(t, client.IsExpired(0))

	client.Close()
	client.Close()
	assert.True(t, client.IsClosed())
	assert.False(t, client.enqueue([]byte("x")))
}
