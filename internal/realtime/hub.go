package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// 单个连接发送队列的容量。队列满说明客户端长时间不消费，直接断开。
	clientSendBuffer = 16
	writeTimeout     = 10 * time.Second
)

// client 代表一个已注册到Hub的websocket连接。
// send永远不会被close：注销只通过done广播，避免在途投递写已关闭的通道。
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub 是内置的实时推送网关。
// 它为每个websocket连接分配一个连接ID，并实现与托管网关
// 相同的按连接投递契约（PostToConnection）。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub 创建一个新的Hub。
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Register 为一个新建立的websocket连接分配连接ID并纳入管理。
// 返回分配的连接ID。
func (h *Hub) Register(conn *websocket.Conn) string {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)

	logger.Log.Info().Str("connection_id", c.id).Msg("websocket连接已注册")
	return c.id
}

// PostToConnection 向指定连接投递一段数据。投递是非阻塞的，不等待ctx。
// 连接不存在（已断开）时返回ErrConnectionGone，与托管网关的410语义一致。
func (h *Hub) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionGone, connectionID)
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		// 查表和入队之间连接被并发注销
		return fmt.Errorf("%w: %s", ErrConnectionGone, connectionID)
	default:
		// 发送队列已满，视为连接不可用并强制注销
		h.unregister(c)
		return fmt.Errorf("%w: %s", ErrConnectionGone, connectionID)
	}
}

// writeLoop 把发送队列中的消息依次写出到websocket连接。
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop 消费入站消息以驱动关闭检测。推送通道不处理客户端上行数据。
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}

// unregister 把连接移出管理并关闭底层资源。重复调用是安全的。
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.done)
	}
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		logger.Log.Info().Str("connection_id", c.id).Msg("websocket连接已注销")
	}
}
