package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域策略由外层CORS中间件统一管理
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connectAck 是连接建立后发给客户端的第一条消息。
// 客户端需要把connectionId随后续的分数提交一起带回。
type connectAck struct {
	ConnectionID string `json:"connectionId"`
}

// Handler 提供websocket接入端点。
type Handler struct {
	hub *Hub
}

// NewHandler 创建一个接入端点处理器。
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Connect 处理 GET /realtime/connect：升级连接并回发分配的连接ID。
func (h *Handler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade失败时gorilla已经写出了HTTP错误响应
		logger.Log.Warn().Err(err).Msg("websocket升级失败")
		return
	}

	connectionID := h.hub.Register(conn)

	ack, _ := json.Marshal(connectAck{ConnectionID: connectionID})
	if err := h.hub.PostToConnection(c.Request.Context(), connectionID, ack); err != nil {
		logger.Log.Warn().Err(err).Msg("发送连接确认失败")
	}
}
