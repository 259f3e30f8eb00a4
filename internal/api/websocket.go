// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Corphon/SceneWriter/internal/services"
	"github.com/Corphon/SceneWriter/internal/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	sendQueueLen = 64
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnection 定义 WebSocket 连接的接口
type WebSocketConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// EditorClient is one connected editor tab.
type EditorClient struct {
	ID        string
	conn      WebSocketConnection
	send      chan []byte
	done      chan struct{}
	closed    int32 // 0=开启，1=关闭
	lastPing  atomic.Int64
	createdAt time.Time
}

func newEditorClient(conn WebSocketConnection) *EditorClient {
	client := &EditorClient{
		ID:        uuid.New().String(),
		conn:      conn,
		send:      make(chan []byte, sendQueueLen),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// Close 安全关闭客户端连接
func (client *EditorClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// IsClosed 检查连接是否已关闭
func (client *EditorClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

func (client *EditorClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// IsExpired 检查连接是否超时
func (client *EditorClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(time.Unix(0, client.lastPing.Load())) > timeout
}

// enqueue never blocks; a full queue drops the message.
func (client *EditorClient) enqueue(message []byte) bool {
	if client.IsClosed() {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// EventHub fans service events out to every connected editor.
type EventHub struct {
	clients     map[*EditorClient]struct{}
	broadcast   chan []byte
	register    chan *EditorClient
	unregister  chan *EditorClient
	mutex       sync.RWMutex
	pingTimeout time.Duration

	dropped  atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewEventHub creates a hub; Run must be started before events flow.
func NewEventHub() *EventHub {
	return &EventHub{
		clients:     make(map[*EditorClient]struct{}),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *EditorClient, 64),
		unregister:  make(chan *EditorClient, 64),
		pingTimeout: pongWait,
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Run 运行 WebSocket 管理器主循环
func (hub *EventHub) Run(ctx context.Context) {
	defer close(hub.stopped)

	cleanupTicker := time.NewTicker(30 * time.Second)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-hub.register:
			hub.registerClient(client)

		case client := <-hub.unregister:
			hub.unregisterClient(client)

		case <-cleanupTicker.C:
			hub.cleanupExpiredConnections()

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)

		case <-ctx.Done():
			hub.Close()
			hub.shutdown()
			return

		case <-hub.stop:
			hub.shutdown()
			return
		}
	}
}

// Close stops Run and disconnects every client.
func (hub *EventHub) Close() {
	hub.stopOnce.Do(func() { close(hub.stop) })
}

// Publish implements services.EventPublisher. It never blocks: when the
// broadcast queue is full the event is dropped and counted.
func (hub *EventHub) Publish(event services.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		utils.GetLogger().Warn("failed to encode event", utils.Fields{"type": event.Type, "error": err.Error()})
		return
	}
	select {
	case hub.broadcast <- payload:
	default:
		hub.dropped.Add(1)
	}
}

func (hub *EventHub) registerClient(client *EditorClient) {
	if client == nil {
		return
	}
	hub.mutex.Lock()
	hub.clients[client] = struct{}{}
	hub.mutex.Unlock()

	utils.GetLogger().Debug("editor connected", utils.Fields{"client_id": client.ID})
}

func (hub *EventHub) unregisterClient(client *EditorClient) {
	if client == nil {
		return
	}
	hub.mutex.Lock()
	delete(hub.clients, client)
	hub.mutex.Unlock()

	client.Close()
	utils.GetLogger().Debug("editor disconnected", utils.Fields{"client_id": client.ID})
}

// cleanupExpiredConnections 清理过期和死连接
func (hub *EventHub) cleanupExpiredConnections() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for client := range hub.clients {
		if client.IsClosed() || client.IsExpired(hub.pingTimeout) {
			delete(hub.clients, client)
			client.Close()
		}
	}
}

func (hub *EventHub) broadcastMessage(message []byte) {
	hub.mutex.RLock()
	clients := make([]*EditorClient, 0, len(hub.clients))
	for client := range hub.clients {
		clients = append(clients, client)
	}
	hub.mutex.RUnlock()

	for _, client := range clients {
		if !client.enqueue(message) && !client.IsClosed() {
			// 队列满，断开慢客户端
			hub.dropped.Add(1)
			client.Close()
		}
	}
}

// shutdown 优雅关闭管理器
func (hub *EventHub) shutdown() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for client := range hub.clients {
		client.Close()
	}
	hub.clients = make(map[*EditorClient]struct{})
}

// Status reports connected editors and dropped events.
func (hub *EventHub) Status() map[string]interface{} {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	clients := make([]interface{}, 0, len(hub.clients))
	for client := range hub.clients {
		if client.IsClosed() {
			continue
		}
		clients = append(clients, map[string]interface{}{
			"client_id":    client.ID,
			"connected_at": client.createdAt.Format(time.RFC3339),
			"last_ping":    time.Unix(0, client.lastPing.Load()).Format(time.RFC3339),
		})
	}

	return map[string]interface{}{
		"total_connections": len(clients),
		"dropped_events":    hub.dropped.Load(),
		"clients":           clients,
	}
}

// Attach registers an already upgraded connection and starts its pumps.
func (hub *EventHub) Attach(conn WebSocketConnection) *EditorClient {
	client := newEditorClient(conn)
	select {
	case hub.register <- client:
	case <-hub.stop:
		client.Close()
		return client
	}

	go hub.writePump(client)
	go hub.readPump(client)
	return client
}

// ServeEditor upgrades the request and streams events until the editor leaves.
func (hub *EventHub) ServeEditor(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("websocket upgrade failed", utils.Fields{"error": err.Error()})
		return
	}
	client := hub.Attach(conn)

	hello, _ := json.Marshal(services.Event{
		Type:      "connected",
		Data:      map[string]string{"client_id": client.ID},
		Timestamp: time.Now(),
	})
	client.enqueue(hello)
}

// readPump only watches for liveness; editors send pings, nothing else.
func (hub *EventHub) readPump(client *EditorClient) {
	defer func() {
		select {
		case hub.unregister <- client:
		case <-hub.stop:
			client.Close()
		}
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.GetLogger().Debug("websocket read error", utils.Fields{"client_id": client.ID, "error": err.Error()})
			}
			return
		}
		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
			pong, _ := json.Marshal(services.Event{Type: "pong", Timestamp: time.Now()})
			client.enqueue(pong)
		}
	}
}

func (hub *EventHub) writePump(client *EditorClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
