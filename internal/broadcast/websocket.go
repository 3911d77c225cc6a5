package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler WebSocket接入端点：升级连接并启动读循环
func Handler(hub *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			return
		}

		conn := NewWSConn(ws, hub, logger)
		logger.Info("WebSocket client connected",
			zap.String("conn_id", conn.ID()),
			zap.String("remote_addr", r.RemoteAddr),
		)

		go conn.ReadLoop()
	}
}

// envelope 下行消息格式
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// clientMessage 上行消息格式（客户端订阅指令）
type clientMessage struct {
	Action    string `json:"action"`
	PatientID string `json:"patient_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// WSConn WebSocket连接（Conn 的实现）
// 写互斥锁保证并发投递不交错；读循环处理客户端订阅指令。
type WSConn struct {
	id     string
	ws     *websocket.Conn
	mu     sync.Mutex
	hub    *Hub
	logger *zap.Logger
}

// NewWSConn 包装一条已升级的WebSocket连接
func NewWSConn(ws *websocket.Conn, hub *Hub, logger *zap.Logger) *WSConn {
	return &WSConn{
		id:     uuid.New().String(),
		ws:     ws,
		hub:    hub,
		logger: logger,
	}
}

// ID 连接标识
func (c *WSConn) ID() string {
	return c.id
}

// Send 投递事件到客户端
func (c *WSConn) Send(event string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(envelope{Event: event, Data: payload})
}

// ReadLoop 处理客户端订阅指令，连接断开时从全部主题注销
// 应在独立goroutine中运行，连接关闭后返回。
func (c *WSConn) ReadLoop() {
	defer func() {
		c.hub.RemoveConnection(c.id)
		c.ws.Close()
		c.logger.Info("WebSocket client disconnected", zap.String("conn_id", c.id))
	}()

	for {
		var msg clientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("WebSocket read error",
					zap.String("conn_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		c.handleMessage(msg)
	}
}

func (c *WSConn) handleMessage(msg clientMessage) {
	switch msg.Action {
	case "subscribe_patient":
		if msg.PatientID != "" {
			c.hub.Subscribe(PatientTopic(msg.PatientID), c)
		}
	case "unsubscribe_patient":
		if msg.PatientID != "" {
			c.hub.Unsubscribe(PatientTopic(msg.PatientID), c)
		}
	case "subscribe_alerts":
		c.hub.Subscribe(TopicAllAlerts, c)
	case "subscribe_chat":
		if msg.UserID != "" {
			c.hub.Subscribe(UserTopic(msg.UserID), c)
		}
	case "unsubscribe_chat":
		if msg.UserID != "" {
			c.hub.Unsubscribe(UserTopic(msg.UserID), c)
		}
	default:
		c.logger.Debug("Unknown client action",
			zap.String("conn_id", c.id),
			zap.String("action", msg.Action),
		)
	}
}
